package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/shelfprice/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shelfprice",
	Short: "Compare grocery prices across online retailers",
	Long:  "Searches each configured retailer for every item on a shopping list and reports the first matching listing's price.",

	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		initLogger(cmd.ErrOrStderr(), cfg.Log)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(w io.Writer, cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
