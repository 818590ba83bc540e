package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/report-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report API over HTTP",
	Long: `Serve exposes the workflow over HTTP:

  POST /api/start                       {"topic": "...", "type": "marketing|comparison"}
  POST /api/feedback                    {"workflow_id": "...", "feedback": true | "revision"}
  GET  /api/workflows/{id}              workflow snapshot
  GET  /api/workflows/{id}/report.html  compiled report as HTML
  GET  /metrics                         Prometheus metrics

With --static, the built web app in that directory is served at /.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return server.New(a.engine, a.cfg.Server, logger.Named("server")).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().String("static", "", "directory of the built web app")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.static_dir", serveCmd.Flags().Lookup("static"))

	rootCmd.AddCommand(serveCmd)
}
