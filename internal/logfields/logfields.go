package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPost       = "post"
	KeySection    = "section"
	KeyTerm       = "term"
	KeyBranch     = "branch"
	KeyRemote     = "remote"
	KeyURL        = "url"
	KeyPages      = "pages"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Post(p string) slog.Attr         { return slog.String(KeyPost, p) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Term(t string) slog.Attr         { return slog.String(KeyTerm, t) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Remote(r string) slog.Attr       { return slog.String(KeyRemote, r) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
