// Package loader discovers the benchmark logs of a results location and
// parses them into a Collection.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/ethpandaops/benchviz/pkg/source"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel parsing when Options leaves it unset.
const DefaultConcurrency = 4

// Options tunes Load.
type Options struct {
	// Concurrency is the number of logs parsed in parallel.
	Concurrency int
}

// Load lists src, keeps the keys with a recognized log extension and parses
// each of them. A single-file source is parsed whatever its extension. Logs are parsed in parallel; the first failure cancels the
// remaining work and is returned.
func Load(
	ctx context.Context,
	log logrus.FieldLogger,
	src source.Source,
	opts Options,
) (*Collection, error) {
	log = log.WithField("component", "loader")
	start := time.Now()

	keys, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", src.Location(), err)
	}

	logs := make([]string, 0, len(keys))

	for _, key := range keys {
		if src.SingleFile() || benchlog.IsLogFile(key) {
			logs = append(logs, key)
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	runs := make([]*benchlog.Run, len(logs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, key := range logs {
		g.Go(func() error {
			// Check for cancellation before starting work.
			if err := gCtx.Err(); err != nil {
				return err
			}

			run, err := loadRun(gCtx, log, src, key)
			if err != nil {
				return err
			}

			runs[i] = run

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", src.Location(), err)
	}

	log.WithFields(logrus.Fields{
		"location": src.Location(),
		"runs":     len(runs),
		"skipped":  len(keys) - len(logs),
		"duration": time.Since(start),
	}).Info("Loaded benchmark results")

	return NewCollection(runs), nil
}

func loadRun(
	ctx context.Context,
	log logrus.FieldLogger,
	src source.Source,
	key string,
) (*benchlog.Run, error) {
	start := time.Now()

	rc, err := src.Open(ctx, key)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rc.Close() }()

	rd, err := benchlog.NewReader(rc, key)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rd.Close() }()

	run, err := benchlog.Parse(log, benchlog.RunName(key), rd)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"run":      run.Name,
		"versions": run.Versions.Len(),
		"duration": time.Since(start),
	}).Debug("Loaded benchmark log")

	return run, nil
}
