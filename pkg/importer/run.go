package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Run imports one adapter using the URL stored in sources, then records the
// row count.
func Run(ctx context.Context, sources *SourceDB, a Adapter, outputDir string, logger *slog.Logger) (Result, error) {
	url, err := sources.GetURL(ctx, a.ID())
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	logger.Info("import started", "adapter", a.ID(), "url", url)
	res, err := a.Import(ctx, url, outputDir)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", a.ID(), err)
	}
	if err := sources.RecordImport(ctx, a.ID(), res.Rows); err != nil {
		logger.Warn("import not recorded", "adapter", a.ID(), "error", err)
	}
	logger.Info("import done", "adapter", a.ID(), "rows", res.Rows, "dir", res.Dir,
		"duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// RunAll imports every registered adapter. A failing adapter is logged and
// skipped; the returned error joins all failures.
func RunAll(ctx context.Context, sources *SourceDB, outputDir string, logger *slog.Logger) ([]Result, error) {
	var (
		results []Result
		failed  []error
	)
	for _, a := range All() {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		res, err := Run(ctx, sources, a, outputDir, logger)
		if err != nil {
			logger.Error("import failed", "adapter", a.ID(), "error", err)
			failed = append(failed, err)
			continue
		}
		results = append(results, res)
	}
	if len(failed) > 0 {
		return results, fmt.Errorf("%d of %d imports failed: %w", len(failed), len(All()), errors.Join(failed...))
	}
	return results, nil
}
