package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kamaldivi/glyphscan/internal/storage"
	"github.com/spf13/cobra"
)

var wordsMinCount int

// wordsCmd represents the words command
var wordsCmd = &cobra.Command{
	Use:   "words [font]",
	Short: "List mined ambiguous words, optionally for one font",
	Long: `Words lists the ambiguous-word candidates mined by the last batch scan.
Each row is the shortest corrected form seen for a (font, glyph) pair,
with its occurrence count. These are the words a reviewer resolves by
hand before the ambiguous glyphs can be corrected.

Example:
  glyphscan words
  glyphscan words BalaramU
  glyphscan words BalaramU --min-count 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWords,
}

func init() {
	rootCmd.AddCommand(wordsCmd)

	wordsCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	wordsCmd.Flags().IntVar(&wordsMinCount, "min-count", 0, "only list words seen at least this many times")
}

func runWords(cmd *cobra.Command, args []string) error {
	fontName := ""
	if len(args) == 1 {
		fontName = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.AmbiguousWords(ctx, fontName)
	if err != nil {
		return fmt.Errorf("load ambiguous words: %w", err)
	}

	shown := 0
	for _, r := range records {
		if r.Count < wordsMinCount {
			continue
		}
		shown++
		fmt.Printf("%-24s %c  %-30s %d\n", r.Font, r.Char, r.Word, r.Count)
	}

	if shown == 0 {
		if fontName != "" {
			fmt.Printf("No mined words for font %q. Run 'glyphscan batch' first.\n", fontName)
		} else {
			fmt.Println("No mined words. Run 'glyphscan batch' first.")
		}
	}

	return nil
}
