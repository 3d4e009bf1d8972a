package commands

import (
	"context"

	"github.com/spf13/cobra"

	"mindmap/internal/config"
	"mindmap/internal/domain"
	"mindmap/internal/repository"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe the stored map, leaving a lone root",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withGateway(cmd.Context(), func(ctx context.Context, cfg *config.Config, gw repository.Gateway) error {
			if err := gw.Clear(ctx); err != nil {
				return err
			}
			root := domain.DefaultSnapshot(cfg.Map.RootName, cfg.Viewport.Size().Center())
			if err := gw.Save(ctx, root); err != nil {
				return err
			}
			checkmark(cmd.OutOrStdout(), "map cleared")
			return nil
		})
	},
}
