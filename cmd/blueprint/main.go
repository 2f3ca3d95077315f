package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blueprint/internal/config"
	"github.com/vango-dev/blueprint/pkg/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "blueprint",
		Short: "Mount declarative blueprint trees into a scene graph",
		Long: `Blueprint describes a tree of host objects as data and mounts it.

Documents are YAML or JSON. They are mounted into an in-memory scene
graph, or into a remote one served by 'blueprint serve'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to "+config.ConfigFileName+" (default: nearest in working directory)")

	load := func() (*config.Config, *slog.Logger, error) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg, cfg.Logger(os.Stderr), nil
	}

	rootCmd.AddCommand(
		mountCmd(load),
		serveCmd(load),
		checkCmd(load),
		versionCmd(),
	)
	return rootCmd
}

type configLoader func() (*config.Config, *slog.Logger, error)

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
