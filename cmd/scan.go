package cmd

import (
	"errors"
	"fmt"
	"os"

	"jukebox/logger"
	"jukebox/services"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var forceScan bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Build the catalog file from the music directory",
	Long: `Scan every entry of the music directory, read its tags and write the
catalog file. An existing catalog is left alone unless --force is given,
because rebuilding reassigns ids and resets play counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cfg.MusicDir, cfg.CatalogFile, forceScan, services.NewFileService())
	},
}

func init() {
	scanCmd.Flags().BoolVar(&forceScan, "force", false, "overwrite an existing catalog file")
	rootCmd.AddCommand(scanCmd)
}

func runScan(musicDir, catalogFile string, force bool, extractor services.MetadataExtractor) error {
	if _, err := os.Stat(catalogFile); err == nil && !force {
		return fmt.Errorf("catalog %s already exists (use --force to rebuild)", catalogFile)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat catalog file: %w", err)
	}

	var bar *progressbar.ProgressBar
	songs, err := services.BuildCatalog(musicDir, extractor, func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "scanning")
		}
		bar.Set(done)
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if err := services.SaveCatalog(catalogFile, songs); err != nil {
		return err
	}

	logger.Info("catalog written",
		logger.String("file", catalogFile),
		logger.Int("songs", len(songs)))
	fmt.Printf("Cataloged %d songs into %s\n", len(songs), catalogFile)
	return nil
}
