package boundary

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"crimewatch/dashboard-go/internal/mapview"
	"crimewatch/dashboard-go/internal/metrics"
)

// DefaultOutlineFile is drawn for context only and never selectable.
const DefaultOutlineFile = "THOOTHUKUDI POLICE MAP OUTLINE.geojson"

// FileMap is the authoritative source file -> canonical subdivision name table.
type FileMap map[string]string

func DefaultFileMap() FileMap {
	return FileMap{
		"kovilpatti.geojson":        "Kovilpatti",
		"Maniyachi.geojson":         "Maniyachi",
		"sathankulam.geojson":       "Sathankulam",
		"srivaikundam.geojson":      "Srivaikundam",
		"thiruchendur.geojson":      "Tiruchendur",
		"Thoothukudi Rural.geojson": "Thoothukudi Rural",
		"Thoothukudi Town.geojson":  "Thoothukudi Town",
		"vilathikulam.geojson":      "Vilathikulam",
	}
}

// Files returns the mapped file names, sorted.
func (m FileMap) Files() []string {
	out := make([]string, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Fetcher retrieves one raw boundary file.
type Fetcher interface {
	Fetch(ctx context.Context, file string) ([]byte, error)
}

// Lister is implemented by fetchers that can enumerate what they hold. Without
// it the loader only asks for the mapped files.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// DirFetcher reads boundary files from a local directory.
type DirFetcher struct {
	FS fs.FS
}

func NewDirFetcher(dir string) DirFetcher {
	return DirFetcher{FS: os.DirFS(dir)}
}

func (d DirFetcher) Fetch(_ context.Context, file string) ([]byte, error) {
	if !fs.ValidPath(file) {
		return nil, fmt.Errorf("invalid boundary file name %q", file)
	}
	return fs.ReadFile(d.FS, file)
}

func (d DirFetcher) List(_ context.Context) ([]string, error) {
	entries, err := fs.ReadDir(d.FS, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".geojson") {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// Outline is the district outline. It is only drawn, never hit-tested, so
// plain lines are kept alongside polygons.
type Outline struct {
	File     string
	Polygons []Polygon
	Lines    [][]mapview.LatLng
}

type Options struct {
	Files       FileMap
	OutlineFile string
	Workers     int
}

type Loader struct {
	log     zerolog.Logger
	files   FileMap
	outline string
	workers int
	metrics *metrics.Metrics
}

func NewLoader(log zerolog.Logger, opts Options, m *metrics.Metrics) *Loader {
	files := opts.Files
	if len(files) == 0 {
		files = DefaultFileMap()
	}
	outline := strings.TrimSpace(opts.OutlineFile)
	if outline == "" {
		outline = DefaultOutlineFile
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Loader{log: log, files: files, outline: outline, workers: workers, metrics: m}
}

// Result describes one load pass.
type Result struct {
	Registry *Registry
	Outline  *Outline
	// Failed maps file name to the load error. Those boundaries are absent.
	Failed map[string]error
	// Skipped lists files with no canonical-name mapping.
	Skipped []string
}

// Load fetches and registers every mapped boundary. Files are fetched
// concurrently; a failing file is logged and left out without affecting the
// others. Several files mapping to the same name are merged into one boundary.
func (l *Loader) Load(ctx context.Context, f Fetcher) *Result {
	res := &Result{Registry: NewRegistry(), Failed: make(map[string]error)}

	candidates := l.files.Files()
	if lister, ok := f.(Lister); ok {
		listed, err := lister.List(ctx)
		if err != nil {
			l.log.Warn().Err(err).Msg("boundary listing failed; using mapped files")
		} else {
			candidates = listed
		}
	}

	byName := make(map[string][]string)
	for _, file := range candidates {
		if file == l.outline {
			continue
		}
		name, ok := l.files[file]
		if !ok {
			res.Skipped = append(res.Skipped, file)
			l.log.Debug().Str("file", file).Msg("unmapped boundary file skipped")
			continue
		}
		byName[name] = append(byName[name], file)
	}
	sort.Strings(res.Skipped)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for name, files := range byName {
		name, files := name, files
		g.Go(func() error {
			var polys []Polygon
			for _, file := range files {
				p, err := l.fetchPolygons(gctx, f, file)
				if err != nil {
					mu.Lock()
					res.Failed[file] = err
					mu.Unlock()
					l.metrics.IncBoundaryLoadFailure()
					l.log.Warn().Err(err).Str("file", file).Str("subdivision", name).Msg("boundary load failed")
					continue
				}
				polys = append(polys, p...)
			}
			if len(polys) == 0 {
				return nil
			}
			if err := res.Registry.Register(name, polys); err != nil {
				l.log.Error().Err(err).Str("subdivision", name).Msg("boundary register failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if o, err := l.fetchOutline(ctx, f); err != nil {
		l.metrics.IncBoundaryLoadFailure()
		l.log.Warn().Err(err).Str("file", l.outline).Msg("district outline load failed")
	} else {
		res.Outline = o
	}

	l.log.Info().
		Int("registered", res.Registry.Len()).
		Int("failed", len(res.Failed)).
		Int("skipped", len(res.Skipped)).
		Bool("outline", res.Outline != nil).
		Msg("boundaries loaded")
	return res
}

func (l *Loader) fetchPolygons(ctx context.Context, f Fetcher, file string) ([]Polygon, error) {
	data, err := f.Fetch(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBoundaryLoadFailed, file, err)
	}
	polys, err := ParsePolygons(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBoundaryLoadFailed, file, err)
	}
	return polys, nil
}

func (l *Loader) fetchOutline(ctx context.Context, f Fetcher) (*Outline, error) {
	data, err := f.Fetch(ctx, l.outline)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBoundaryLoadFailed, l.outline, err)
	}
	polys, lines, err := ParseOutline(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBoundaryLoadFailed, l.outline, err)
	}
	return &Outline{File: l.outline, Polygons: polys, Lines: lines}, nil
}
