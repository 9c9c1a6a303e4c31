package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var probeWait time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether the backend answers the startup handshake",
	Run:   runProbe,
}

func init() {
	probeCmd.Flags().DurationVar(&probeWait, "wait", 0, "how long to wait for the handshake (default handshake.await_timeout)")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := startApp(cfg)

	wait := probeWait
	if wait <= 0 {
		wait = cfg.Handshake.AwaitTimeout
	}
	connected := app.AwaitConnected(wait)
	report := app.Health()
	stopApp(app)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SERVER\tSTATE\tATTEMPTS\tSTATUS")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", cfg.Server.URL, report.Connection, report.ProbeAttempts, report.Status)
	_ = w.Flush()

	if !connected {
		os.Exit(1)
	}
}
