package main

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blueprint/internal/config"
	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/host"
	"github.com/vango-dev/blueprint/pkg/loader"
	"github.com/vango-dev/blueprint/pkg/mount"
	"github.com/vango-dev/blueprint/pkg/remotehost"
	"github.com/vango-dev/blueprint/pkg/telemetry"
)

func mountCmd(load configLoader) *cobra.Command {
	var (
		remote string
		watch  bool
		keep   bool
	)

	cmd := &cobra.Command{
		Use:   "mount SOURCE",
		Short: "Mount a blueprint document",
		Long: `Mount a blueprint document and print the mounted tree.

SOURCE is a file path, "-" for stdin, or an s3://bucket/key URL.
Without --remote the tree is mounted into an in-memory host built from
the classes in blueprint.json.

Examples:
  blueprint mount scene.yaml
  blueprint mount scene.yaml --watch
  blueprint mount s3://scenes/menu.yaml --remote ws://localhost:7420/host --keep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			src := args[0]
			if watch && (src == loader.StdinSource || strings.HasPrefix(src, loader.S3Scheme)) {
				return fmt.Errorf("--watch needs a local file, got %s", src)
			}

			var (
				h      host.Host
				root   host.Ref
				client *remotehost.Client
			)
			if remote != "" {
				client, err = remotehost.Dial(ctx, remote, remotehost.WithLogger(logger))
				if err != nil {
					return err
				}
				defer client.Close()
				h, root = client, client.Root()
				info(cmd.OutOrStdout(), "Connected to %s", remote)
			} else {
				mem := host.NewMemory(append(cfg.HostOptions(), host.WithLogger(logger))...)
				h, root = mem, mem.Root()
			}

			solver := animate.NewSpringSolver(h,
				animate.WithLogger(logger),
				animate.WithDefaultSpring(cfg.DefaultSpring()),
			)
			s := &session{
				out:    cmd.OutOrStdout(),
				logger: logger,
				root:   root,
				remote: client,
				solver: solver,
				mounter: mount.New(h,
					mount.WithLogger(logger),
					mount.WithSolver(solver),
					mount.WithTracer(telemetry.Tracer(telemetry.DefaultTracerName)),
				),
				loader: newLoader(cfg, src, cmd.OutOrStdout(), cmd.InOrStdin(), logger),
				source: src,
				watch:  watch,
				keep:   keep,
			}
			return s.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&remote, "remote", "r", "", "Mount into the host served at this websocket URL")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Remount when the document changes")
	cmd.Flags().BoolVarP(&keep, "keep", "k", false, "Keep the tree mounted until interrupted")

	return cmd
}

// newLoader builds a loader with the builtin registry. The S3 client is only
// constructed for s3:// sources.
func newLoader(cfg *config.Config, src string, out io.Writer, stdin io.Reader, logger *slog.Logger) *loader.Loader {
	opts := []loader.Option{loader.WithLogger(logger), loader.WithStdin(stdin)}
	if strings.HasPrefix(src, loader.S3Scheme) {
		opts = append(opts, loader.WithS3(loader.NewS3Client(cfg.S3Client())))
	}
	return loader.New(builtinRegistry(out, logger), opts...)
}
