package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMaksoo/karting/internal/index"
)

var (
	searchDriver string
	searchTrack  string
	searchDate   string
	searchLimit  int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search persisted laps by driver, track or date",
	Long: `Queries the search index for lap rows. Driver and track match as
case-insensitive substrings; date must be exact (YYYY-MM-DD). Results
are ordered fastest lap first.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchDriver, "driver", "", "filter by driver name")
	searchCmd.Flags().StringVar(&searchTrack, "track", "", "filter by track name")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "filter by session date (YYYY-MM-DD)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if searchIdx == nil {
		return errors.New("search index not available (run without --no-index)")
	}

	if err := proc.RebuildIndex(cmd.Context()); err != nil {
		return fmt.Errorf("refreshing search index: %w", err)
	}

	hits, err := searchIdx.Search(cmd.Context(), index.Query{
		Driver: searchDriver,
		Track:  searchTrack,
		Date:   searchDate,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchLimit > 0 && len(hits) > searchLimit {
		hits = hits[:searchLimit]
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(hits) == 0 {
		cmd.Println("No laps found.")
		return nil
	}

	cmd.Println(styleTitle.Render(fmt.Sprintf("%d laps", len(hits))))
	for _, h := range hits {
		lap := fmt.Sprintf("%.3fs", h.LapTime)
		if h.BestLap == "Y" {
			lap = styleBest.Render(lap)
		}
		cmd.Printf("  %s %s  %-22s %-24s heat %d lap %-3d %s\n",
			styleValue.Render(h.Date), h.Time, h.Driver, h.Track, h.Heat, h.LapNumber, lap)
	}
	return nil
}
