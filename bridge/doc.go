// Package bridge exposes container patching to WebAssembly guests.
//
// A Bridge registers a wazero host module, "rive_patcher" by default, with
// these functions:
//
//	init_api(handle i32)
//	patch_rive_input_memory(in_ptr, in_len, out_ptr, out_max, name_ptr, name_len i32,
//	                        kind i32, min f64, max f64) -> i32
//	patch_rive_input(path_ptr, path_len, name_ptr, name_len i32,
//	                 kind i32, min f64, max f64) -> i32
//
// init_api is the one-time lifecycle hook guests call before patching; it
// only records the handle. patch_rive_input_memory reads a container and a
// UTF-8 name from guest memory and writes the patched container to the output
// range, returning the byte count. patch_rive_input rewrites a host file and
// is registered only when Options.FileAccess is set.
//
// Failures are negative codes, see ErrorCode. The default value of a number
// input is its min.
//
// Usage:
//
//	rt := wazero.NewRuntime(ctx)
//	if _, err := bridge.NewWithDefaults().Instantiate(ctx, rt); err != nil {
//		return err
//	}
//	guest, err := rt.Instantiate(ctx, guestWasm)
package bridge
