package ingest

import (
	"time"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination"
	"github.com/mh131105/TP1-BD/utils/logger"
)

type TableStats struct {
	Written int64 `json:"written"`
	Dropped int64 `json:"dropped"`
}

// Stats is the end-of-run summary reported to the caller and optionally
// written as JSON.
type Stats struct {
	RunID             string                `json:"run_id"`
	Input             string                `json:"input"`
	RecordsParsed     int64                 `json:"records_parsed"`
	RecordsSkipped    int64                 `json:"records_skipped"`
	RowsWritten       int64                 `json:"rows_written"`
	RowsDropped       int64                 `json:"rows_dropped"`
	UnresolvedSimilar int                   `json:"unresolved_similar"`
	ElapsedSeconds    float64               `json:"elapsed_seconds"`
	Tables            map[string]TableStats `json:"tables"`
}

func buildStats(runID, input string, pool *destination.Pool, extractor *Extractor, parsed int64, elapsed time.Duration) *Stats {
	stats := &Stats{
		RunID:             runID,
		Input:             input,
		RecordsParsed:     parsed,
		RecordsSkipped:    extractor.Skipped(),
		RowsWritten:       pool.Stats().Written.Load(),
		RowsDropped:       pool.Stats().Dropped.Load(),
		UnresolvedSimilar: extractor.PendingSimilar(),
		ElapsedSeconds:    elapsed.Seconds(),
		Tables:            make(map[string]TableStats, len(constants.TableLoadOrder)),
	}
	for _, table := range constants.TableLoadOrder {
		stats.Tables[table] = TableStats{
			Written: pool.Written(table),
			Dropped: pool.Dropped(table),
		}
	}
	return stats
}

func (s *Stats) Log() {
	for _, table := range constants.TableLoadOrder {
		counts := s.Tables[table]
		if counts.Dropped > 0 {
			logger.Infof("%s: %d rows written, %d dropped", table, counts.Written, counts.Dropped)
			continue
		}
		logger.Infof("%s: %d rows written", table, counts.Written)
	}
	if s.UnresolvedSimilar > 0 {
		logger.Debugf("dropped %d similarity pairs whose target never appeared", s.UnresolvedSimilar)
	}
	logger.Infof("loaded %d records (%d skipped) in %.1fs", s.RecordsParsed, s.RecordsSkipped, s.ElapsedSeconds)
}
