package patcher

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wippyai/riv-patcher/errors"
)

// Watch applies m once, then again every time m.File is written or replaced.
// onApply, if set, receives the result of each application. The output must
// differ from the source, otherwise every write would trigger another.
// Watch returns nil when ctx is cancelled.
func (p *Patcher) Watch(ctx context.Context, m *Manifest, onApply func(error)) error {
	if err := m.Validate(); err != nil {
		return err
	}
	src := filepath.Clean(m.File)
	if filepath.Clean(m.OutputPath()) == src {
		return errors.InvalidConfig("watch needs an output distinct from the source file", nil)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.IO("create watcher for", src, err)
	}
	defer watcher.Close()

	// Watch the directory so replacements by rename are seen.
	if err := watcher.Add(filepath.Dir(src)); err != nil {
		return errors.IO("watch", filepath.Dir(src), err)
	}

	apply := func() {
		err := p.Apply(m)
		if err != nil {
			p.log().Warn("watch apply failed", zap.String("file", src), zap.Error(err))
		}
		if onApply != nil {
			onApply(err)
		}
	}

	p.log().Info("watching", zap.String("file", src), zap.String("output", m.OutputPath()))
	apply()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != src {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.log().Debug("source changed", zap.String("file", src), zap.Stringer("op", event.Op))
			apply()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log().Warn("watcher error", zap.Error(err))
		}
	}
}
