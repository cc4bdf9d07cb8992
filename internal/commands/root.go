// Package commands provides CLI commands for chatwidget.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/api"
	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/render"
	"github.com/diogo/chatwidget/internal/tui"
)

var (
	// Global flags
	serverFlag   string
	endpointFlag string
	verboseFlag  bool

	// Root-only flags
	fileFlag string
	copyFlag bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// errReported marks failures whose message was already shown to the user
var errReported = errors.New("reported")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatwidget [prompt]",
	Short: "Terminal chat widget for a /api/chat backend",
	Long: `chatwidget sends messages to a chat endpoint that accepts
{"messages":[{"role":"user","content":"..."}]} and answers {"result":"..."},
and renders the Markdown reply in the terminal.

Examples:
  chatwidget chat                       Start the interactive widget
  chatwidget "What is Go?"              Send a single message
  chatwidget -f prompt.md               Read the message from a file
  cat prompt.md | chatwidget            Read the message from stdin
  chatwidget serve                      Run a local echo backend
  chatwidget --server http://host:8080 chat`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "chatwidget %s (built %s)\n", Version, BuildTime)
			return nil
		}

		prompt, ok, err := readPrompt(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if !ok {
			// No input - show help
			return cmd.Help()
		}
		return runPromptCommand(cmd.Context(), prompt, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Chat server origin (default from config, http://localhost:3000)")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Chat endpoint path (default /api/chat)")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Log debug diagnostics (stderr in one-shot mode)")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the message from a file")
	rootCmd.Flags().BoolVarP(&copyFlag, "copy", "c", false, "Copy the reply to the clipboard")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// readPrompt picks the message source: --file, then piped stdin, then the argument.
// ok is false when no source was given.
func readPrompt(args []string, stdin io.Reader) (prompt string, ok bool, err error) {
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if hasPipedInput(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	return "", false, nil
}

// hasPipedInput reports whether stdin is something other than a terminal
func hasPipedInput(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return stdin != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// loadConfig loads the configuration and applies the global flags on top
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}

	if serverFlag != "" {
		cfg.ServerURL = strings.TrimRight(serverFlag, "/")
	}
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
		if !strings.HasPrefix(cfg.Endpoint, "/") {
			cfg.Endpoint = "/" + cfg.Endpoint
		}
	}
	if verboseFlag {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

// newClient builds the chat client for cfg
func newClient(cfg config.Config) (*api.Client, error) {
	client, err := api.NewClient(cfg.ServerURL, api.WithEndpoint(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", cfg.ChatURL(), err)
	}
	log.Debug().Str("endpoint", cfg.ChatURL()).Msg("chat client ready")
	return client, nil
}

// applyTheme activates the configured TUI theme
func applyTheme(cfg config.Config) {
	if cfg.TUITheme == "" {
		return
	}
	if !render.SetTUITheme(cfg.TUITheme) {
		log.Warn().Str("theme", cfg.TUITheme).Strs("available", render.TUIThemeNames()).Msg("unknown TUI theme, keeping default")
		return
	}
	tui.UpdateTheme()
}
