package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var healthPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the client running and expose /health and /metrics",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().IntVar(&healthPort, "port", 0, "health server port (overrides health.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if healthPort > 0 {
		cfg.Health.Port = healthPort
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 9090
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	app := startApp(cfg)
	slog.Info("Client running", "server", cfg.Server.URL, "health_port", cfg.Health.Port)

	go func() {
		if app.AwaitConnected(cfg.Handshake.AwaitTimeout) {
			return
		}
		slog.Warn("Backend not connected yet", "timeout", cfg.Handshake.AwaitTimeout)
	}()

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	stopApp(app)
}
