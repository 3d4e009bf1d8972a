package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mindmap/internal/codec"
	"mindmap/internal/config"
	"mindmap/internal/repository"
)

var (
	exportFormat string
	exportPath   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored map as JSON, YAML or TOML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := codec.Lookup(exportFormat)
		if err != nil {
			return err
		}

		return withGateway(cmd.Context(), func(ctx context.Context, _ *config.Config, gw repository.Gateway) error {
			snap, err := gw.Load(ctx)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if exportPath != "" && exportPath != "-" {
				f, err := os.Create(exportPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := c.Export(snap, out); err != nil {
				return err
			}
			if out != cmd.OutOrStdout() {
				checkmark(cmd.ErrOrStderr(), "exported %d nodes to %s", len(snap.Nodes), exportPath)
			}
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format (json, yaml, toml)")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "-", "output file, - for stdout")
}
