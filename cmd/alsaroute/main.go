package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelquigley/alsaroute/internal/config"
	"github.com/michaelquigley/alsaroute/internal/logging"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "alsaroute",
	Short: "Inspect ALSA mixers and switch audio routes",
	Long: `alsaroute is a command-line tool for the ALSA control interface of
embedded sound cards.

It lists and sets mixer controls, watches control changes and drives the
codec route tables that open PCM streams and apply their mixer settings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath, cmd.Flags()); err != nil {
			return err
		}
		if logger, err = logging.New(cfg.LogLevel, cfg.Verbose); err != nil {
			return err
		}
		if cfg.File != "" {
			logger.Debugw("Loaded config", "file", cfg.File)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default searches ./alsaroute.yaml and /etc/alsaroute)")
	flags.Int("card", 0, "Card used for route operations")
	flags.String("card-id-path", "", "File holding the card identification string")
	flags.Bool("usb", false, "Allow the USB audio routes")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolP("verbose", "v", false, "Development logging")

	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(controlsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(levelCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(setIntCmd)
	rootCmd.AddCommand(dbRangeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(inputSourceCmd)

	controlsCmd.Flags().Bool("values", false, "Show control values")
	routeCmd.Flags().Bool("hold", false, "Keep the route open until interrupted")
	routeCmd.Flags().Bool("nonblock", false, "Open the PCM streams non-blocking")
	volumeCmd.Flags().String("route", "speaker_normal", "Playback route opened before setting the volume")
	inputSourceCmd.Flags().String("route", "main_mic_capture", "Capture route opened before selecting the source")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
