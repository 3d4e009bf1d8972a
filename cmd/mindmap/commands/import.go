package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mindmap/internal/codec"
	"mindmap/internal/config"
	"mindmap/internal/domain"
	"mindmap/internal/repository"
)

var (
	importFormat string
	importDemo   bool
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace the stored map with a JSON, YAML or TOML snapshot",
	Args: func(cmd *cobra.Command, args []string) error {
		if importDemo {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot(args)
		if err != nil {
			return err
		}

		return withGateway(cmd.Context(), func(ctx context.Context, cfg *config.Config, gw repository.Gateway) error {
			clean, droppedNodes, droppedLinks := snap.Sanitize()
			if clean.Empty() {
				clean = domain.DefaultSnapshot(cfg.Map.RootName, cfg.Viewport.Size().Center())
			}
			if err := gw.Save(ctx, clean); err != nil {
				return err
			}
			if droppedNodes > 0 || droppedLinks > 0 {
				warn.Fprintf(cmd.ErrOrStderr(), "dropped %d nodes and %d links with bad references\n", droppedNodes, droppedLinks)
			}
			checkmark(cmd.OutOrStdout(), "imported %d nodes and %d links", len(clean.Nodes), len(clean.Links))
			return nil
		})
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "input format (json, yaml, toml); default from the file extension")
	importCmd.Flags().BoolVar(&importDemo, "demo", false, "import the bundled programming language map")
}

func readSnapshot(args []string) (domain.Snapshot, error) {
	if importDemo {
		return codec.Demo()
	}

	path := args[0]
	format := importFormat
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	c, err := codec.Lookup(format)
	if err != nil {
		return domain.Snapshot{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return c.Parse(f)
}
