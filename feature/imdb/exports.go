package imdb

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"media-sync/core/media"

	"go.uber.org/zap"
)

// ErrExportTimeout is returned when an export file does not appear within
// the configured wait. It aborts only its category.
var ErrExportTimeout = errors.New("export file not available in time")

// exportFiles maps categories to the file names the export flow drops.
var exportFiles = map[media.Category]string{
	media.CategoryWatchlist: "watchlist.csv",
	media.CategoryRatings:   "ratings.csv",
	media.CategoryHistory:   "checkins.csv",
}

// Exports reads list categories from CSV export files.
type Exports struct {
	cfg Config
	log *zap.Logger

	// pollInterval is shortened in tests
	pollInterval time.Duration
}

// NewExports creates an export reader over cfg.ExportDir.
func NewExports(cfg Config, log *zap.Logger) *Exports {
	return &Exports{cfg: cfg, log: log, pollInterval: 500 * time.Millisecond}
}

// Load waits for the category's export file and parses it. The wait is
// bounded by ExportTimeoutSeconds; a timeout surfaces as ErrExportTimeout.
func (e *Exports) Load(ctx context.Context, category media.Category) ([]media.Item, error) {
	name, ok := exportFiles[category]
	if !ok {
		return nil, fmt.Errorf("no export file for category %q", category)
	}
	path := filepath.Join(e.cfg.ExportDir, name)

	timeout := time.Duration(e.cfg.ExportTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := e.waitForFile(wctx, path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	items, err := ParseExport(f, category)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	e.log.Debug("Export loaded",
		zap.String("category", string(category)),
		zap.Int("items", len(items)))
	return items, nil
}

func (e *Exports) waitForFile(ctx context.Context, path string) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrExportTimeout, path)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ParseExport reads one IMDb CSV export into item records. Columns are
// located by header name, so column reordering across site versions is
// tolerated. Rows with an unrecognized title type keep it verbatim and are
// flagged downstream at normalization.
func ParseExport(r io.Reader, category media.Category) ([]media.Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["const"]; !ok {
		return nil, errors.New("missing const column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var items []media.Item
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		it := media.Item{
			IMDBID:   field(row, "const"),
			SourceID: field(row, "const"),
			Title:    field(row, "title"),
			Type:     titleType(field(row, "title type")),
		}
		if y, err := strconv.Atoi(field(row, "year")); err == nil {
			it.Year = y
		}
		it.AddedAt = parseDate(field(row, "created"))

		switch category {
		case media.CategoryRatings:
			if r, err := strconv.Atoi(field(row, "your rating")); err == nil {
				it.Rating = r
			}
			it.RatedAt = parseDate(field(row, "date rated"))
		case media.CategoryHistory:
			it.WatchedAt = it.AddedAt
		}
		items = append(items, it)
	}
	return items, nil
}

// titleType maps export title-type labels onto media types. Unknown labels
// pass through lowercased so normalization can flag them.
func titleType(raw string) media.Type {
	switch strings.ToLower(raw) {
	case "movie", "tv movie", "tvmovie", "video", "tv special", "tvspecial", "short":
		return media.TypeMovie
	case "tv series", "tvseries", "tv mini series", "tv mini-series", "tvminiseries":
		return media.TypeShow
	case "tv episode", "tvepisode":
		return media.TypeEpisode
	}
	return media.Type(strings.ToLower(raw))
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "2 January 2006", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
