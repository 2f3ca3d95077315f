package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/blueprint/pkg/blueprint"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithS3 sets the client used for s3:// sources.
func WithS3(client S3API) Option {
	return func(l *Loader) {
		l.s3 = client
	}
}

// WithStdin sets the reader used for StdinSource. The default is os.Stdin.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) {
		l.stdin = r
	}
}

// WithDebounce sets how long Watch waits for writes to settle before
// reloading. The default is 200ms.
func WithDebounce(d time.Duration) Option {
	return func(l *Loader) {
		l.debounce = d
	}
}

// Loader reads documents from their sources and parses them.
type Loader struct {
	registry *Registry
	logger   *slog.Logger
	s3       S3API
	stdin    io.Reader
	debounce time.Duration
}

// New creates a loader resolving names through reg.
func New(reg *Registry, opts ...Option) *Loader {
	if reg == nil {
		reg = NewRegistry()
	}
	l := &Loader{
		registry: reg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdin:    os.Stdin,
		debounce: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Registry returns the name registry.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Load reads and parses the document named by src.
func (l *Loader) Load(ctx context.Context, src string) (*blueprint.Node, error) {
	data, err := l.Read(ctx, src)
	if err != nil {
		return nil, err
	}
	node, err := Parse(data, src, l.registry)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("document loaded", "source", src, "class", node.ClassName(), "nodes", node.Size())
	return node, nil
}

// Watch reloads the document at path whenever it is written and passes the
// result to reload. Reloads are debounced. reload runs on the watcher's
// goroutine. Watch returns once watching has started; it stops when ctx is
// done.
func (l *Loader) Watch(ctx context.Context, path string, reload func(*blueprint.Node, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Editors often replace files rather than write them in place, so the
	// directory is watched and events are filtered by name.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go l.processEvents(ctx, watcher, abs, reload)
	l.logger.Info("watching document", "path", abs)
	return nil
}

func (l *Loader) processEvents(ctx context.Context, watcher *fsnotify.Watcher, path string, reload func(*blueprint.Node, error)) {
	defer watcher.Close()

	var reloadTimer *time.Timer
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			l.logger.Debug("document changed", "file", event.Name, "op", event.Op.String())

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(l.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				node, err := l.Load(ctx, path)
				if err != nil {
					l.logger.Warn("reload failed", "path", path, "error", err)
				}
				reload(node, err)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("watcher error", "error", err)
		}
	}
}
