package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/anrosca/softice/internal/logfields"
	"github.com/anrosca/softice/internal/site"
)

// healthStatus is the /healthz response body.
type healthStatus struct {
	Status    string `json:"status"`
	BuildID   string `json:"build_id,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Pages     int    `json:"pages,omitempty"`
	BuiltAt   string `json:"built_at,omitempty"`
	PostCount int    `json:"posts,omitempty"`
}

// newServer assembles the preview HTTP server: the site itself at /, a
// health probe and optionally the metrics scrape endpoint.
func (d *Daemon) newServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.handleHealthz)
	if d.metricsHandler != nil {
		mux.Handle("/metrics", d.metricsHandler)
	}
	mux.Handle("/", http.FileServer(http.Dir(d.opts.OutputDir)))

	return &http.Server{
		Addr:              d.cfg.Daemon.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	status := healthStatus{Status: "ok"}
	if report := d.lastReport(); report != nil {
		status.BuildID = report.BuildID
		status.Outcome = string(report.Outcome)
		status.Pages = report.Pages
		status.PostCount = report.Posts
		status.BuiltAt = report.StartedAt.UTC().Format(time.RFC3339)
		if report.Outcome == site.OutcomeFailed {
			status.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		slog.Warn("Failed to write health response", logfields.Error(err))
	}
}
