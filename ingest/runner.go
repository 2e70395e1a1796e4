package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mh131105/TP1-BD/destination"
	"github.com/mh131105/TP1-BD/pkg/parser"
	"github.com/mh131105/TP1-BD/pkg/source"
	"github.com/mh131105/TP1-BD/utils"
	"github.com/mh131105/TP1-BD/utils/logger"
)

const progressInterval = 10 * time.Second

// Runner drives the whole load: open input, set up the sink, parse
// records into the extractor, final flush, post-load statements. The
// pipeline is strictly sequential; a flush blocks parsing until it lands.
type Runner struct {
	Input     string
	AWS       *source.AWSConfig
	Sink      destination.Sink
	BatchSize int
	StatsFile string
}

func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	runID := utils.ULID()
	logger.Infof("run %s: loading %s", runID, r.Input)

	input, err := source.Open(ctx, r.Input, r.AWS)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	if err := r.Sink.Setup(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.Sink.Close(ctx); err != nil {
			logger.Warnf("failed to close sink: %s", err)
		}
	}()

	pool := destination.NewPool(r.Sink, r.BatchSize)
	extractor := NewExtractor(pool)

	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	logger.StatsLogger(progressCtx, progressInterval, func() (int64, int64) {
		return pool.Stats().Enqueued.Load(), pool.Stats().Written.Load()
	})

	records := parser.New(input)
	var parsed int64
	for {
		record, err := records.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// rows flushed before this point stay committed
			return nil, fmt.Errorf("aborting run: %s", err)
		}
		parsed++
		if err := extractor.Extract(ctx, record); err != nil {
			return nil, fmt.Errorf("aborting run: %s", err)
		}
	}

	if err := pool.Flush(ctx); err != nil {
		return nil, fmt.Errorf("aborting run: %s", err)
	}
	if err := r.Sink.Finalize(ctx); err != nil {
		return nil, fmt.Errorf("aborting run: %s", err)
	}

	stats := buildStats(runID, r.Input, pool, extractor, parsed, time.Since(start))
	stats.Log()

	if r.StatsFile != "" {
		if err := utils.MarshalFile(r.StatsFile, stats); err != nil {
			logger.Warnf("failed to write stats file: %s", err)
		}
	}
	return stats, nil
}
