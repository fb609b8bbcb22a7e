package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var folderPricing bool

var folderCmd = &cobra.Command{
	Use:   "folder [dir]",
	Short: "Process every track subfolder under a directory",
	Long: `Walks one level of track-named subfolders (e.g. voltage/, lot66/),
processing every supported file inside each. Already ingested sessions
are skipped. With --pricing, the pricing pass runs after ingestion.`,
	Args: cobra.ExactArgs(1),
	RunE: runFolder,
}

func init() {
	folderCmd.Flags().BoolVar(&folderPricing, "pricing", true, "run the pricing pass after ingestion")
	rootCmd.AddCommand(folderCmd)
}

func runFolder(cmd *cobra.Command, args []string) error {
	batch, err := proc.ProcessFolder(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("processing folder %s: %w", args[0], err)
	}

	cmd.Println(styleTitle.Render("Batch complete"))
	cmd.Printf("%s %s\n", styleLabel.Render("Files:"),
		styleValue.Render(fmt.Sprintf("%d processed, %d duplicates", batch.Files, batch.Duplicates)))
	cmd.Printf("%s %s\n", styleLabel.Render("Rows:"),
		styleValue.Render(fmt.Sprintf("%d appended", batch.Rows)))
	for _, failure := range batch.Failures {
		cmd.Println(styleWarn.Render("skipped: " + failure))
	}

	if folderPricing && batch.Rows > 0 {
		updated, err := proc.Reprice(cmd.Context())
		if err != nil {
			return fmt.Errorf("applying pricing: %w", err)
		}
		cmd.Printf("%s %s\n", styleLabel.Render("Pricing:"),
			styleValue.Render(fmt.Sprintf("%d rows updated", updated)))
	}
	return nil
}
