package cmd

import (
	"fmt"
	"os"

	"jukebox/config"
	"jukebox/logger"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	musicDirFlag    string
	catalogFileFlag string
	portFlag        int
)

var rootCmd = &cobra.Command{
	Use:   "jukebox",
	Short: "Jukebox catalogs a music directory and serves it over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotenv := config.LoadDotEnv()
		cfg = config.Load()
		applyFlags(cmd, cfg)

		if err := logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
		}); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if !dotenv {
			logger.Debug("no .env file loaded, using environment and defaults")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return StartWebServer(cfg)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&musicDirFlag, "music-dir", "", "directory holding the audio files (env MUSIC_DIR)")
	rootCmd.PersistentFlags().StringVar(&catalogFileFlag, "catalog", "", "path of the persisted catalog (env CATALOG_FILE)")
	rootCmd.Flags().IntVar(&portFlag, "port", config.DefaultPort, "port for the web server (env SERVER_PORT)")
}

// applyFlags lets explicitly set flags win over the environment
func applyFlags(cmd *cobra.Command, c *config.Config) {
	if f := cmd.Flags().Lookup("music-dir"); f != nil && f.Changed {
		c.MusicDir = musicDirFlag
	}
	if f := cmd.Flags().Lookup("catalog"); f != nil && f.Changed {
		c.CatalogFile = catalogFileFlag
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		c.Port = portFlag
	}
}

// Execute runs the root command
func Execute() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
