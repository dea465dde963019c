// Package services orchestrates the extraction pipeline: filter PAF rows,
// tally addresses per postcode, resolve coordinates, build the run result.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/progress"
	"github.com/marmstr93ng/PostcodeParse/internal/ports"
)

type ExtractRequest struct {
	RunID     string
	Districts []domain.District
}

// Extract tallies residential small-user addresses per postcode from the
// source, resolves coordinates for every distinct postcode through the
// locator, and returns the finished run result.
//
// A postcode row counts only when the organisation name is empty, the
// postcode type is "S", and the district is one of the requested ones.
// Rows whose postcode field passes the district filter but cannot be
// normalized are tallied as rejected, never written to output.
func Extract(
	ctx context.Context,
	req ExtractRequest,
	source ports.AddressSource,
	locator ports.Locator,
	reporter progress.Reporter,
	log *slog.Logger,
) (_ *domain.RunResult, err error) {
	defer obs.Time(ctx, "extract")(&err)

	if len(req.Districts) == 0 {
		return nil, errors.New("extract: no districts requested")
	}

	total, err := source.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: count source rows: %w", err)
	}

	wanted := domain.NewDistrictSet(req.Districts)
	run := &domain.RunResult{
		RunID:       req.RunID,
		Districts:   req.Districts,
		GeneratedAt: time.Now().UTC(),
	}

	counts := make(map[domain.Postcode]int)

	bar := reporter.Start("Processing PAF data", total)
	err = source.Scan(ctx, func(dp domain.DeliveryPoint) error {
		bar.Add(1)
		run.RowsScanned++

		if !dp.Residential() || !dp.SmallUser() || !wanted.Contains(dp.Postcode) {
			return nil
		}

		p, perr := domain.ParsePostcode(dp.Postcode)
		if perr != nil {
			run.Rejected++
			log.Debug("rejected malformed postcode",
				slog.String("run_id", req.RunID),
				slog.String("raw", dp.Postcode),
			)
			return nil
		}

		counts[p]++
		run.RowsCounted++
		return nil
	})
	bar.Finish()
	if err != nil {
		return nil, fmt.Errorf("extract: scan source: %w", err)
	}

	distinct := make([]domain.Postcode, 0, len(counts))
	for p := range counts {
		distinct = append(distinct, p)
	}
	sort.Slice(distinct, func(i, j int) bool {
		return distinct[i].String() < distinct[j].String()
	})

	located, err := locator.Locate(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("extract: locate postcodes: %w", err)
	}

	for _, p := range distinct {
		if coord, ok := located[p]; ok {
			run.Located = append(run.Located, domain.LocatedPostcode{
				Postcode:     p,
				AddressCount: counts[p],
				Coordinates:  coord,
			})
		} else {
			run.Unlocated = append(run.Unlocated, domain.UnlocatedPostcode{
				Postcode:    p,
				Occurrences: counts[p],
			})
		}
	}

	log.Info("extraction complete",
		slog.String("run_id", req.RunID),
		slog.Int64("rows_scanned", run.RowsScanned),
		slog.Int64("rows_counted", run.RowsCounted),
		slog.Int64("rejected", run.Rejected),
		slog.Int("located", len(run.Located)),
		slog.Int("unlocated", len(run.Unlocated)),
	)

	return run, nil
}

// Export runs every exporter against the finished result. The first
// failure aborts: output files are fatal, partial output folders are not
// left silently incomplete.
func Export(ctx context.Context, run *domain.RunResult, exporters []ports.Exporter, log *slog.Logger) error {
	for _, e := range exporters {
		if err := e.Export(ctx, run); err != nil {
			return fmt.Errorf("export %s: %w", e.Name(), err)
		}
		log.Debug("output written",
			slog.String("run_id", run.RunID),
			slog.String("exporter", e.Name()),
		)
	}

	return nil
}
