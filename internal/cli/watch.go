package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/TheMaksoo/karting/internal/logger"
)

// settleDelay lets mail clients finish writing a dropped file before it
// is picked up.
const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a folder and ingest new result files as they appear",
	Long: `Watches the given directory and its track subfolders for new .eml and
.txt files, processing each one as it lands. Duplicate sessions are
skipped as usual, so re-dropped files are harmless. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(root, entry.Name())); err != nil {
				logger.Warn("cannot watch %s: %v", entry.Name(), err)
			}
		}
	}

	cmd.Println(styleTitle.Render("Watching " + root))

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("cannot watch %s: %v", event.Name, err)
				}
				continue
			}
			if !supportedExt(event.Name) {
				continue
			}
			time.Sleep(settleDelay)

			result, err := proc.ProcessFile(ctx, event.Name)
			if err != nil {
				logger.Warn("skipping %s: %v", filepath.Base(event.Name), err)
				continue
			}
			printFileResult(cmd, result)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

func supportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml", ".txt":
		return true
	}
	return false
}
