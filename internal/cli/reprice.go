package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var repriceCmd = &cobra.Command{
	Use:   "reprice",
	Short: "Recompute pricing across the whole lap table",
	Long: `Runs the pricing distribution pass over every persisted row: per-day
heat counts and per-driver lap totals are recomputed from the full table
and each row's heat price and per-lap cost are stamped fresh.`,
	RunE: runReprice,
}

func init() {
	rootCmd.AddCommand(repriceCmd)
}

func runReprice(cmd *cobra.Command, _ []string) error {
	updated, err := proc.Reprice(cmd.Context())
	if err != nil {
		return fmt.Errorf("repricing table: %w", err)
	}
	if updated == 0 {
		cmd.Println("Lap table is empty, nothing to price.")
		return nil
	}
	cmd.Println(styleTitle.Render(fmt.Sprintf("Pricing applied to %d rows", updated)))
	return nil
}
