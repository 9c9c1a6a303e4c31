package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/discover-rso/rso/internal/control"
	"github.com/discover-rso/rso/internal/core/config"
	"github.com/discover-rso/rso/internal/core/domain"
	"github.com/discover-rso/rso/internal/summary"
)

var asJSON bool

var summariesCmd = &cobra.Command{
	Use:   "summaries",
	Short: "List RSO summaries from the backend",
	Run:   runSummaries,
}

func init() {
	summariesCmd.Flags().BoolVar(&asJSON, "json", false, "print summaries as JSON")
	rootCmd.AddCommand(summariesCmd)
}

func runSummaries(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := startApp(cfg)

	err := fetchSummaries(cfg, app)
	stopApp(app)
	if err != nil {
		slog.Error("Error fetching summary list", "error", err)
		os.Exit(1)
	}
}

func fetchSummaries(cfg *config.AppConfig, app *control.App) error {
	if !app.AwaitConnected(cfg.Handshake.AwaitTimeout) {
		return fmt.Errorf("backend unavailable at %s", cfg.Server.URL)
	}

	var r summary.Result
	select {
	case r = <-app.Summaries().Summaries():
	case <-time.After(cfg.Server.Timeout + cfg.Handshake.AwaitTimeout):
		return errors.New("timed out waiting for summaries")
	}

	summaries, err := r.Get()
	if err != nil {
		return r.Err()
	}
	return printSummaries(os.Stdout, summaries, asJSON)
}

func printSummaries(out io.Writer, summaries []domain.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tCOLOR")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID(), s.Title(), s.Color())
	}
	return w.Flush()
}
