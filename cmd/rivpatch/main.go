package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/riv-patcher/patcher"
	"github.com/wippyai/riv-patcher/riv"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to the container file")
		name        = flag.String("name", "", "Name of the input to add")
		kind        = flag.String("kind", "number", "Input kind: number, boolean or trigger")
		minValue    = flag.Float64("min", 0, "Lower bound of a number input")
		maxValue    = flag.Float64("max", 0, "Upper bound of a number input")
		defValue    = flag.Float64("default", 0, "Default of a number input (defaults to -min)")
		out         = flag.String("out", "", "Write the result here instead of patching in place")
		config      = flag.String("config", "", "YAML manifest listing the inputs to add")
		watch       = flag.Bool("watch", false, "With -config, re-apply whenever the source changes")
		inspect     = flag.Bool("inspect", false, "Print sections and inputs and exit")
		create      = flag.Bool("new", false, "Create an empty container at -file")
		smName      = flag.String("sm", "State Machine 1", "With -new, name of the state machine")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()
	patcher.SetLogger(log)

	var err error
	switch {
	case *config != "":
		err = runManifest(*config, *watch)

	case *file == "":
		usage()
		os.Exit(1)

	case *interactive:
		err = runInteractive(*file, *out)

	case *inspect:
		err = runInspect(*file)

	case *create:
		err = runNew(*file, *smName)

	case *name == "":
		usage()
		os.Exit(1)

	default:
		var spec riv.InputSpec
		spec, err = specFromFlags(*name, *kind, *minValue, *maxValue, *defValue, flagSet("default"))
		if err == nil {
			err = runPatch(*file, *out, spec)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: rivpatch -file <file.riv> -name <input> [-kind number|boolean|trigger] [-min n -max n] [-default n] [-out <file.riv>]")
	fmt.Fprintln(os.Stderr, "       rivpatch -config <inputs.yaml> [-watch]")
	fmt.Fprintln(os.Stderr, "       rivpatch -file <file.riv> -inspect")
	fmt.Fprintln(os.Stderr, "       rivpatch -file <file.riv> -new [-sm name]")
	fmt.Fprintln(os.Stderr, "       rivpatch -file <file.riv> -i  (interactive mode)")
}

func newLogger(verbose bool) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		log, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func specFromFlags(name, kind string, min, max, def float64, hasDefault bool) (riv.InputSpec, error) {
	k, err := riv.ParseInputKind(kind)
	if err != nil {
		return riv.InputSpec{}, err
	}
	spec := riv.NewInput(name, k, min, max)
	if hasDefault {
		spec.Default = def
	}
	return spec, spec.Validate()
}

func runPatch(file, out string, spec riv.InputSpec) error {
	if out == "" {
		out = file
	}
	if err := patcher.NewWithDefaults().PatchFileTo(file, out, spec); err != nil {
		return err
	}
	fmt.Printf("Added %s input %q to %s\n", spec.Kind, spec.Name, out)
	return nil
}

func runManifest(path string, watch bool) error {
	m, err := patcher.LoadManifest(path)
	if err != nil {
		return err
	}
	p := patcher.NewWithDefaults()

	if !watch {
		if err := p.Apply(m); err != nil {
			return err
		}
		fmt.Printf("Added %d inputs to %s\n", len(m.Inputs), m.OutputPath())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s (ctrl+c to stop)\n", m.File)
	return p.Watch(ctx, m, func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Printf("Wrote %s\n", m.OutputPath())
	})
}

func runInspect(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	doc, err := riv.Inspect(data)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	fmt.Print(renderDocument(file, doc))
	return nil
}

func runNew(file, stateMachine string) error {
	data, err := riv.Assemble(1, riv.SectionData{
		Tag:  riv.SectionStateMachine,
		Body: riv.StateMachineBody(riv.StateMachineRecord(stateMachine)),
	})
	if err != nil {
		return err
	}
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	fmt.Printf("Created %s (%d bytes)\n", file, len(data))
	return nil
}
