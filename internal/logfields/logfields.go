package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyDir        = "dir"
	KeyURL        = "url"
	KeySlug       = "slug"
	KeyTaxonomy   = "taxonomy"
	KeyTerm       = "term"
	KeyCount      = "count"
	KeyFormat     = "format"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Taxonomy(name string) slog.Attr  { return slog.String(KeyTaxonomy, name) }
func Term(value string) slog.Attr     { return slog.String(KeyTerm, value) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
