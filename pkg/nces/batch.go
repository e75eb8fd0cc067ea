package nces

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/hsregistry/pkg/dataset"
)

// Query is one row to match.
type Query struct {
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
	City  string `json:"city,omitempty"`
}

// chunkSize bounds the rows handled per goroutine.
const chunkSize = 512

// BatchMatch matches every query and returns results in input order. Rows
// are split into chunks matched by at most workers goroutines (GOMAXPROCS
// when workers <= 0). Per-row outcomes live in each result; only a missing
// reference or a cancelled context fail the batch.
func BatchMatch(ctx context.Context, l *Lookup, queries []Query, workers int) ([]MatchResult, error) {
	if l == nil || l.Len() == 0 {
		return nil, ErrNoReference
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]MatchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(queries); start += chunkSize {
		end := min(start+chunkSize, len(queries))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				q := queries[i]
				m, err := l.Match(q.Name, q.State, q.City)
				if err != nil {
					return fmt.Errorf("row %d: %w", i, err)
				}
				out[i] = m
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Columns names the dataset columns used by BatchMatchDataset. Empty input
// fields take the DefaultColumns names; Prefix names the output columns.
type Columns struct {
	Name   string
	State  string
	City   string
	Prefix string
}

func DefaultColumns() Columns {
	return Columns{Name: "high_school", State: "state", City: "city", Prefix: "nces_"}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.State == "" {
		c.State = d.State
	}
	if c.City == "" {
		c.City = d.City
	}
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	return c
}

// OutputColumns lists the appended column names in order.
func (c Columns) OutputColumns() []string {
	c = c.withDefaults()
	names := []string{"id", "matched_name", "street", "city", "state", "zip", "source", "confidence", "candidates"}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = c.Prefix + n
	}
	return out
}

// BatchMatchDataset returns a copy of ds with the match columns appended.
// Rows without a match get empty reference cells and confidence none.
func BatchMatchDataset(ctx context.Context, ds *dataset.Dataset, l *Lookup, cols Columns, workers int) (*dataset.Dataset, error) {
	cols = cols.withDefaults()
	if _, err := ds.Require(cols.Name); err != nil {
		return nil, fmt.Errorf("batch match: %w", err)
	}
	name, state, city := ds.Index(cols.Name), ds.Index(cols.State), ds.Index(cols.City)

	queries := make([]Query, ds.Len())
	for i := range queries {
		queries[i] = Query{Name: ds.Value(i, name), State: ds.Value(i, state), City: ds.Value(i, city)}
	}
	results, err := BatchMatch(ctx, l, queries, workers)
	if err != nil {
		return nil, fmt.Errorf("batch match: %w", err)
	}

	matched := 0
	out, err := ds.Augment(cols.OutputColumns(), func(i int) []string {
		m := results[i]
		if m.Matched() {
			matched++
		}
		return []string{
			m.NCESID, m.MatchedName, m.Street, m.City, m.State, m.Zip,
			string(m.Source), string(m.Confidence), strconv.Itoa(m.Candidates),
		}
	})
	if err != nil {
		return nil, fmt.Errorf("batch match: %w", err)
	}
	slog.Info("nces: batch matched", "matched", matched, "total", ds.Len())
	return out, nil
}
