package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/blueprint"
	"github.com/vango-dev/blueprint/pkg/host"
	"github.com/vango-dev/blueprint/pkg/loader"
	"github.com/vango-dev/blueprint/pkg/mount"
	"github.com/vango-dev/blueprint/pkg/remotehost"
)

// frameInterval is the animation step period.
const frameInterval = time.Second / 60

type reload struct {
	node *blueprint.Node
	err  error
}

// session mounts one document and, when asked to, keeps it alive. All engine
// work happens on the goroutine running run.
type session struct {
	out     io.Writer
	logger  *slog.Logger
	root    host.Ref
	remote  *remotehost.Client
	solver  *animate.SpringSolver
	mounter *mount.Mounter
	loader  *loader.Loader

	source string
	watch  bool
	keep   bool
}

func (s *session) run(ctx context.Context) error {
	node, err := s.loader.Load(ctx, s.source)
	if err != nil {
		return err
	}
	handle, err := s.mounter.MountContext(ctx, node, s.root)
	if err != nil {
		return err
	}
	success(s.out, "Mounted %s (%d nodes)", s.source, node.Size())
	printTree(s.out, handle)

	if !s.keep && !s.watch {
		s.settle()
		return s.unmount(handle)
	}

	reloads := make(chan reload, 1)
	if s.watch {
		err := s.loader.Watch(ctx, s.source, func(n *blueprint.Node, err error) {
			select {
			case reloads <- reload{node: n, err: err}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			_ = s.unmount(handle)
			return err
		}
		info(s.out, "Watching %s", s.source)
	}

	var ready <-chan struct{}
	var lost <-chan struct{}
	if s.remote != nil {
		ready = s.remote.Ready()
		lost = s.remote.Done()
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.unmount(handle)

		case <-ticker.C:
			if err := s.solver.Step(frameInterval.Seconds()); err != nil {
				s.logger.Warn("animation step failed", "error", err)
			}

		case <-ready:
			s.remote.Dispatch()

		case <-lost:
			return fmt.Errorf("remote host connection lost: %w", s.remote.Err())

		case r := <-reloads:
			if r.err != nil {
				errorMsg(s.out, "Reload failed: %v", r.err)
				continue
			}
			next, err := s.mounter.Replace(handle, r.node, s.root)
			if err != nil {
				errorMsg(s.out, "Remount failed: %v", err)
				handle = nil
				continue
			}
			handle = next
			success(s.out, "Remounted %s (%d nodes)", s.source, r.node.Size())
			printTree(s.out, handle)
		}
	}
}

// settle runs pending animations to rest so a one-shot mount leaves final
// values behind.
func (s *session) settle() {
	for i := 0; i < 10*60 && s.solver.Active() > 0; i++ {
		if err := s.solver.Step(frameInterval.Seconds()); err != nil {
			s.logger.Warn("animation step failed", "error", err)
			return
		}
	}
}

func (s *session) unmount(handle *mount.Handle) error {
	if handle == nil {
		return nil
	}
	if err := handle.Unmount(); err != nil {
		return err
	}
	info(s.out, "Unmounted %s", handle.ClassName())
	return nil
}
