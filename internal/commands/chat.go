package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/render"
	"github.com/diogo/chatwidget/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat widget",
	Long: `Start the interactive chat widget.

Each message is sent on its own; the reply replaces a "..." placeholder
once the server answers. Press Esc or Ctrl+C to quit, Ctrl+Y to copy
the latest reply. Diagnostics go to the log file, never the screen.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func runChat(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The widget owns the terminal: log to file only
	closeLog, err := setupLogging(cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	applyTheme(cfg)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	log.Info().Str("endpoint", client.URL()).Msg("chat widget started")
	defer log.Info().Msg("chat widget stopped")

	return tui.Run(cmd.Context(), client, render.LoadOptionsFromConfig(cfg))
}
