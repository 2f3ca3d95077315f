package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blueprint/pkg/errors"
)

func checkCmd(load configLoader) *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "check SOURCE...",
		Short: "Validate blueprint documents without mounting them",
		Long: `Parse and validate blueprint documents.

Every plugin and handler a document names must be one of the builtins.
Nothing is mounted.

Examples:
  blueprint check scene.yaml
  blueprint check --tree scenes/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			failed := 0
			for _, src := range args {
				ld := newLoader(cfg, src, out, cmd.InOrStdin(), logger)
				node, err := ld.Load(cmd.Context(), src)
				if err != nil {
					failed++
					if be, ok := err.(*errors.Error); ok {
						errorMsg(out, "%s", be.FormatCompact())
					} else {
						errorMsg(out, "%s: %v", src, err)
					}
					continue
				}
				success(out, "%s: %s (%d nodes)", src, node.ClassName(), node.Size())
				if tree {
					printNode(out, node, nil, 0)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&tree, "tree", "t", false, "Print the parsed tree")

	return cmd
}
