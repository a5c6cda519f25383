package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fincal/internal/fetcher"
	"github.com/sells-group/fincal/internal/model"
)

// Status is the outcome of loading one table.
type Status string

const (
	StatusLoaded  Status = "loaded"
	StatusMissing Status = "missing"
	StatusFailed  Status = "failed"
)

// TableReport summarises the load of one table.
type TableReport struct {
	Table   model.Table
	File    string
	Status  Status
	Rows    int
	Skipped int
	Err     error
}

// Options configures a Loader.
type Options struct {
	// Root is a local directory or an ftp:// or http(s):// base URL.
	Root string
	// TempDir receives downloads from a remote Root.
	TempDir     string
	Manifest    *Manifest
	Concurrency int
	Fetch       fetcher.Options
}

// Loader reads every source table under a root.
type Loader struct {
	opts    Options
	fetcher fetcher.Fetcher
}

// NewLoader validates opts and prepares the fetcher for remote roots.
func NewLoader(opts Options) (*Loader, error) {
	if opts.Root == "" {
		return nil, eris.New("source: root is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	l := &Loader{opts: opts}
	if fetcher.IsRemote(opts.Root) {
		if opts.TempDir == "" {
			opts.TempDir = filepath.Join(os.TempDir(), "fincal-sources")
			l.opts.TempDir = opts.TempDir
		}
		f, err := fetcher.ForURL(opts.Root, opts.Fetch)
		if err != nil {
			return nil, eris.Wrap(err, "source: remote root")
		}
		l.fetcher = f
	}
	return l, nil
}

// Load reads every table. Missing and unreadable tables are logged and left
// nil on the result; the returned error is reserved for context cancellation.
func (l *Loader) Load(ctx context.Context) (*model.Sources, []TableReport, error) {
	tables := model.AllTables()
	out := &model.Sources{}
	reports := make([]TableReport, len(tables))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)

	for i, t := range tables {
		g.Go(func() error {
			rep, sheet := l.loadTable(gctx, t)
			if sheet != nil {
				mu.Lock()
				res, err := decodeInto(out, t, sheet)
				mu.Unlock()
				if err != nil {
					rep.Status, rep.Err = StatusFailed, err
				} else {
					rep.Rows, rep.Skipped = res.Rows, res.Skipped
				}
			}
			reports[i] = rep
			logReport(rep)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, reports, eris.Wrap(err, "source: load cancelled")
	}
	return out, reports, nil
}

func (l *Loader) loadTable(ctx context.Context, t model.Table) (TableReport, *fetcher.Sheet) {
	name := l.opts.Manifest.FileFor(t)
	rep := TableReport{Table: t, File: name, Status: StatusLoaded}

	path, err := l.locate(ctx, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			rep.Status = StatusMissing
		} else {
			rep.Status, rep.Err = StatusFailed, err
		}
		return rep, nil
	}

	sheet, err := readSheet(ctx, path)
	if err != nil {
		rep.Status, rep.Err = StatusFailed, err
		return rep, nil
	}
	return rep, sheet
}

// locate returns a local path for name, downloading it first for remote roots.
func (l *Loader) locate(ctx context.Context, name string) (string, error) {
	if l.fetcher == nil {
		path := filepath.Join(l.opts.Root, name)
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return fetcher.Stage(ctx, l.fetcher, l.opts.Root, name, l.opts.TempDir)
}

func readSheet(ctx context.Context, path string) (*fetcher.Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return fetcher.ReadCSV(ctx, path)
	case ".xlsx":
		return fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	default:
		return nil, eris.Errorf("source: unsupported file type %s", path)
	}
}

func logReport(rep TableReport) {
	log := zap.L().With(zap.String("component", "source"), zap.String("table", string(rep.Table)), zap.String("file", rep.File))
	switch rep.Status {
	case StatusMissing:
		log.Warn("source file not found, table skipped")
	case StatusFailed:
		log.Error("source table failed, skipped", zap.Error(rep.Err))
	default:
		log.Info("source table loaded", zap.Int("rows", rep.Rows), zap.Int("skipped", rep.Skipped))
	}
}

// Loaded reports whether every named table loaded.
func Loaded(reports []TableReport, tables ...model.Table) bool {
	ok := map[model.Table]bool{}
	for _, r := range reports {
		ok[r.Table] = r.Status == StatusLoaded
	}
	for _, t := range tables {
		if !ok[t] {
			return false
		}
	}
	return true
}
