package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination"
	"github.com/mh131105/TP1-BD/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleRecordDump = `Id: 0
ASIN: X1
title: T
group: Book
salesrank: 5
similar: 2 A1 A2
categories: 1
|Cat[10]
reviews: total: 1 downloaded: 1 avg rating: 5
2024-01-01 customer: C1 rating: 5 votes: 2 helpful: 1
`

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunSingleRecord(t *testing.T) {
	sink := newMemorySink()
	statsFile := filepath.Join(t.TempDir(), "stats.json")
	runner := &Runner{
		Input:     writeDump(t, singleRecordDump),
		Sink:      sink,
		BatchSize: 100,
		StatsFile: statsFile,
	}

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][]destination.Row{
		{{"X1", "T", "Book", 5, 1, 1, 5.0}},
		{{10, "Cat", nil}},
		{{"C1"}},
		{{"X1", "C1", "2024-01-01", 5, 2, 1}},
		{{"X1", 10}},
	}, [][]destination.Row{
		sink.rows[constants.TableProduct],
		sink.rows[constants.TableCategory],
		sink.rows[constants.TableCustomer],
		sink.rows[constants.TableReview],
		sink.rows[constants.TableProductCategory],
	})
	// neither similarity target ever appeared as a product
	assert.Empty(t, sink.rows[constants.TableProductSimilar])

	assert.Equal(t, int64(1), stats.RecordsParsed)
	assert.Equal(t, int64(0), stats.RecordsSkipped)
	assert.Equal(t, 2, stats.UnresolvedSimilar)
	assert.Equal(t, int64(5), stats.RowsWritten)
	assert.Equal(t, int64(1), stats.Tables[constants.TableProduct].Written)
	assert.NotEmpty(t, stats.RunID)
	assert.True(t, sink.finalized)
	assert.True(t, sink.closed)

	var written Stats
	require.NoError(t, utils.UnmarshalFile(statsFile, &written))
	assert.Equal(t, stats.RunID, written.RunID)
	assert.Equal(t, stats.RowsWritten, written.RowsWritten)
}

func TestRunSkipsRecordsWithoutASIN(t *testing.T) {
	dump := `Id: 1
title: no asin here
Id: 2
ASIN: A2
title: fine
`
	sink := newMemorySink()
	runner := &Runner{Input: writeDump(t, dump), Sink: sink, BatchSize: 10}

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.RecordsParsed)
	assert.Equal(t, int64(1), stats.RecordsSkipped)
	require.Len(t, sink.rows[constants.TableProduct], 1)
	assert.Equal(t, "A2", sink.rows[constants.TableProduct][0][0])
}

func TestRunFailsWhenInputMissing(t *testing.T) {
	sink := newMemorySink()
	runner := &Runner{Input: "/does/not/exist.txt", Sink: sink, BatchSize: 10}

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	// setup never ran, nothing to finalize
	assert.False(t, sink.finalized)
}

func TestRunEmptyInput(t *testing.T) {
	sink := newMemorySink()
	runner := &Runner{Input: writeDump(t, ""), Sink: sink, BatchSize: 10}

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.RecordsParsed)
	assert.True(t, sink.finalized)
}
