package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TheMaksoo/karting/internal/processor"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Process a single result file",
	Long: `Detects the track from the file content, extracts the session and
appends its lap rows to the table. Re-processing an already ingested
session is a no-op, not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	result, err := proc.ProcessFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("processing %s: %w", args[0], err)
	}
	printFileResult(cmd, result)
	return nil
}

func printFileResult(cmd *cobra.Command, r *processor.FileResult) {
	cmd.Println(styleTitle.Render(fmt.Sprintf("%s - session %s", r.Track, r.Session)))
	cmd.Printf("%s %s\n",
		styleLabel.Render("Date:"),
		styleValue.Render(fmt.Sprintf("%s %s (heat %d)", r.Date, r.Time, r.Heat)))

	for _, d := range r.Drivers {
		line := fmt.Sprintf("P%-2d %-22s %3d laps  best %s",
			d.Position, d.Name, d.Laps, styleBest.Render(fmt.Sprintf("%.3fs", d.Best)))
		cmd.Println("  " + line)
	}

	switch {
	case r.Duplicate:
		cmd.Println(styleWarn.Render("duplicate session, no rows appended"))
	case r.Rows == 0:
		cmd.Println(styleWarn.Render("no rows produced"))
	default:
		cmd.Printf("%s %s\n",
			styleLabel.Render("Appended:"),
			styleValue.Render(fmt.Sprintf("%d rows", r.Rows)))
	}
	cmd.Println(styleLabel.Render(strings.Repeat("─", 40)))
}
