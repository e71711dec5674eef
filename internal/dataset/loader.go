package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"copurchase-dashboard/internal/models"
)

const defaultWorkers = 4

type Options struct {
	Policy Policy
	// DataDir is the single directory read under the strict policy.
	DataDir string
	// SearchDirs are tried in order under the lenient policy.
	SearchDirs []string
	Seed       uint64
	Workers    int
	Logger     *slog.Logger
}

// Loader resolves logical tables to files and reads them.
type Loader struct {
	policy  Policy
	scheme  Scheme
	dirs    []string
	seed    uint64
	workers int
	logger  *slog.Logger
}

func NewLoader(opts Options) *Loader {
	l := &Loader{
		policy:  opts.Policy,
		scheme:  SchemeFor(opts.Policy),
		seed:    opts.Seed,
		workers: opts.Workers,
		logger:  opts.Logger,
	}
	if l.policy == PolicyStrict {
		l.dirs = []string{opts.DataDir}
	} else {
		l.policy = PolicyLenient
		l.dirs = append([]string(nil), opts.SearchDirs...)
	}
	if l.workers <= 0 {
		l.workers = defaultWorkers
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

func (l *Loader) Policy() Policy {
	return l.policy
}

func (l *Loader) Key() Key {
	files := make([]string, 0, len(l.scheme))
	for _, t := range l.tables() {
		files = append(files, l.scheme[t])
	}
	return Key{
		Policy: l.policy,
		Dirs:   joinKeyPart(l.dirs),
		Files:  joinKeyPart(files),
		Seed:   l.seed,
	}
}

// tables returns the tables the active scheme defines, in load order.
func (l *Loader) tables() []TableName {
	out := make([]TableName, 0, len(AllTables))
	for _, t := range AllTables {
		if _, ok := l.scheme[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Candidates lists the paths tried for table, in priority order.
func (l *Loader) Candidates(table TableName) []string {
	file, ok := l.scheme[table]
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(l.dirs))
	for _, dir := range l.dirs {
		paths = append(paths, filepath.Join(dir, file))
	}
	return paths
}

// LoadTable returns the first candidate that reads and parses, with the path
// it came from. When every candidate fails the frame is empty and found is
// false.
func (l *Loader) LoadTable(table TableName) (frame Frame, source string, found bool) {
	for _, path := range l.Candidates(table) {
		f, err := ReadTable(path)
		if err != nil {
			l.logger.Debug("table candidate skipped", "table", table, "path", path, "error", err)
			continue
		}
		frame, source, found = f, path, true
		break
	}
	if !found {
		return emptyFrame(), "", false
	}
	return frame, source, true
}

type TableReport struct {
	Table  TableName `json:"table"`
	Source string    `json:"source"`
	Rows   int       `json:"rows"`
	Found  bool      `json:"found"`
}

// Report describes where each table of a load came from.
type Report struct {
	Policy   Policy        `json:"policy"`
	Sample   bool          `json:"sample"`
	Tables   []TableReport `json:"tables"`
	Duration time.Duration `json:"duration"`
}

type loadResult struct {
	table  TableName
	frame  Frame
	source string
	found  bool
}

// Load reads every table of the scheme and returns typed, normalized tables.
// The only error it returns is context cancellation; unreadable files
// degrade to empty tables or, under the strict policy, to sample data.
func (l *Loader) Load(ctx context.Context) (*models.Dataset, Report, error) {
	tables := l.tables()
	results := make([]loadResult, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, table := range tables {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frame, source, found := l.LoadTable(table)
			results[i] = loadResult{
				table:  table,
				frame:  Normalize(table, frame),
				source: source,
				found:  found,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Report{}, fmt.Errorf("load tables: %w", err)
	}

	report := Report{Policy: l.policy}

	if l.policy == PolicyStrict {
		var missing []TableName
		for _, r := range results {
			if !r.found {
				missing = append(missing, r.table)
			}
		}
		if len(missing) > 0 {
			l.logger.Warn("data files unavailable, using sample data",
				"missing", missing,
				"data_dir", l.dirs[0],
				"seed", l.seed,
			)
			ds := GenerateSample(l.seed)
			report.Sample = true
			report.Tables = datasetReport(ds, "sample")
			return ds, report, nil
		}
	}

	frames := make(map[TableName]Frame, len(results))
	for _, r := range results {
		frames[r.table] = r.frame
		if !r.found {
			l.logger.Warn("table unavailable, using empty table",
				"table", r.table,
				"candidates", l.Candidates(r.table),
			)
		}
		report.Tables = append(report.Tables, TableReport{
			Table:  r.table,
			Source: r.source,
			Rows:   r.frame.Nrow(),
			Found:  r.found,
		})
	}

	return decodeDataset(frames), report, nil
}

func datasetReport(ds *models.Dataset, source string) []TableReport {
	counts := []struct {
		table TableName
		rows  int
	}{
		{TableProducts, ds.Products.Len()},
		{TableCategories, ds.Categories.Len()},
		{TableGroupProducts, ds.GroupProducts.Len()},
		{TableGroupBoards, ds.GroupBoards.Len()},
		{TableParticipants, ds.Participants.Len()},
		{TableUsers, ds.Users.Len()},
		{TableFavorites, ds.Favorites.Len()},
	}
	out := make([]TableReport, 0, len(counts))
	for _, c := range counts {
		out = append(out, TableReport{Table: c.table, Source: source, Rows: c.rows, Found: c.rows > 0})
	}
	return out
}
