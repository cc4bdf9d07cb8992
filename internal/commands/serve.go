package commands

import (
	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/devserver"
)

var (
	listenFlag string
	staticFlag string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local chat backend for development",
	Long: `Run a local backend implementing POST /api/chat.

The backend echoes the last user message back as Markdown; an empty
message gets {} so the "no response" path can be tried. Use --static
to serve the page assets from a directory at /.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listenFlag != "" {
			cfg.ListenAddr = listenFlag
		}
		if staticFlag != "" {
			cfg.StaticDir = staticFlag
		}

		closeLog, err := setupLogging(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		srv := devserver.New(devserver.WithStaticDir(cfg.StaticDir))
		return srv.ListenAndServe(cmd.Context(), cfg.ListenAddr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenFlag, "listen", "l", "", "Listen address (default 127.0.0.1:3000)")
	serveCmd.Flags().StringVar(&staticFlag, "static", "", "Directory served at /")
}
