package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination"
	"github.com/mh131105/TP1-BD/ingest"
	"github.com/mh131105/TP1-BD/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSink(ctx context.Context, t *testing.T) *Postgres {
	t.Helper()
	sink := New(testutils.PostgresContainer(ctx, t))
	require.NoError(t, sink.Setup(ctx))
	t.Cleanup(func() {
		_ = sink.Close(context.Background())
	})
	return sink
}

func countRows(ctx context.Context, t *testing.T, sink *Postgres, table string) int {
	t.Helper()
	var count int
	require.NoError(t, sink.conn.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&count))
	return count
}

func TestWriteBatchRoundTrip(t *testing.T) {
	testutils.SkipUnlessIntegration(t)

	ctx := context.Background()
	sink := setupSink(ctx, t)
	tables := destination.Tables()

	batches := []struct {
		table string
		rows  []destination.Row
	}{
		{constants.TableProduct, []destination.Row{
			{"0827229534", "Patterns of Preaching", "Book", 396585, 2, 2, 5.0},
			{"0738700797", "Candlemas: Feast of Flames", "Book", 168596, 12, 12, 4.5},
		}},
		{constants.TableCategory, []destination.Row{
			{283155, "Books", nil},
			{22, "Religion & Spirituality", 283155},
		}},
		{constants.TableCustomer, []destination.Row{
			{"A2JW67OY8U6HHK"},
			{"A2VE83MZF98ITY"},
		}},
		{constants.TableReview, []destination.Row{
			{"0827229534", "A2JW67OY8U6HHK", "2000-7-28", 5, 10, 9},
			{"0738700797", "A2VE83MZF98ITY", "2001-12-16", 4, 3, 2},
		}},
		{constants.TableProductCategory, []destination.Row{
			{"0827229534", 22},
			{"0738700797", 22},
		}},
		{constants.TableProductSimilar, []destination.Row{
			{"0827229534", "0738700797"},
		}},
	}
	for _, batch := range batches {
		written, err := sink.WriteBatch(ctx, tables[batch.table], batch.rows)
		require.NoError(t, err, "write to %s failed", batch.table)
		assert.Equal(t, len(batch.rows), written, "table %s", batch.table)
	}

	require.NoError(t, sink.Finalize(ctx))

	for _, batch := range batches {
		assert.Equal(t, len(batch.rows), countRows(ctx, t, sink, batch.table), "table %s", batch.table)
	}

	var constrained bool
	require.NoError(t, sink.conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_review_product')").Scan(&constrained))
	assert.True(t, constrained)

	var rating int
	require.NoError(t, sink.conn.QueryRow(ctx,
		"SELECT rating FROM review WHERE asin = '0827229534' AND review_date = DATE '2000-07-28'").Scan(&rating))
	assert.Equal(t, 5, rating)

	// the guards make the post-load statements safe to run twice
	require.NoError(t, sink.Finalize(ctx))
}

func TestWriteBatchFallbackDropsOnlyBadRows(t *testing.T) {
	testutils.SkipUnlessIntegration(t)

	ctx := context.Background()
	sink := setupSink(ctx, t)
	product := destination.Tables()[constants.TableProduct]

	rows := []destination.Row{
		{"B000050B6Z", "Sound and Fury", "Video", 2483, 1, 1, 4.0},
		{"B00004W3Y6", nil, nil, nil, nil, nil, nil},
		{"6303360041", "Aladdin", "Video", 4677, 2, 2, 4.5},
	}
	written, err := sink.WriteBatch(ctx, product, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	assert.Equal(t, 2, countRows(ctx, t, sink, "product"))
	var exists bool
	require.NoError(t, sink.conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM product WHERE asin = 'B00004W3Y6')").Scan(&exists))
	assert.False(t, exists)
}

func TestUpsertKeepsExplicitFields(t *testing.T) {
	testutils.SkipUnlessIntegration(t)

	ctx := context.Background()
	sink := setupSink(ctx, t)
	product := destination.Tables()[constants.TableProduct]

	_, err := sink.WriteBatch(ctx, product, []destination.Row{
		{"0486220125", "How the Other Half Lives", "Book", 52106, 17, 17, 4.0},
	})
	require.NoError(t, err)
	_, err = sink.WriteBatch(ctx, product, []destination.Row{
		{"0486220125", constants.DiscontinuedTitle, nil, nil, nil, nil, nil},
	})
	require.NoError(t, err)

	var title, group string
	var salesrank int
	require.NoError(t, sink.conn.QueryRow(ctx,
		"SELECT title, group_name, salesrank FROM product WHERE asin = '0486220125'").Scan(&title, &group, &salesrank))
	assert.Equal(t, constants.DiscontinuedTitle, title)
	assert.Equal(t, "Book", group)
	assert.Equal(t, 52106, salesrank)
}

const endToEndDump = `Id:   15
ASIN: 0827229534
  title: Patterns of Preaching: A Sermon Sampler
  group: Book
  salesrank: 396585
  similar: 1  0804215715
  categories: 2
   |Books[283155]|Subjects[1000]|Religion & Spirituality[22]
   |Books[283155]|Subjects[1000]|Preaching[12368]
  reviews: total: 2  downloaded: 2  avg rating: 5
    2000-7-28  cutomer: A2JW67OY8U6HHK  rating: 5  votes: 10  helpful: 9
    2003-12-14  cutomer: A2VE83MZF98ITY  rating: 5  votes: 6  helpful: 5

Id:   16
ASIN: 0804215715
  title: Fundamentals of Preaching
  group: Book
  salesrank: 455160
  similar: 0
  categories: 0
  reviews: total: 0  downloaded: 0  avg rating: 0
`

func TestLoadEndToEnd(t *testing.T) {
	testutils.SkipUnlessIntegration(t)

	ctx := context.Background()
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "amazon-meta.txt")
	require.NoError(t, os.WriteFile(dumpPath, []byte(endToEndDump), 0o644))

	config := testutils.PostgresContainer(ctx, t)
	runner := &ingest.Runner{
		Input:     dumpPath,
		Sink:      New(config),
		BatchSize: 100,
		StatsFile: filepath.Join(dir, "stats.json"),
	}
	stats, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.RecordsParsed)
	assert.Equal(t, int64(0), stats.RecordsSkipped)
	assert.Equal(t, int64(0), stats.RowsDropped)
	assert.Equal(t, 0, stats.UnresolvedSimilar)
	assert.FileExists(t, filepath.Join(dir, "stats.json"))

	// the runner closed its connection, open a fresh one to verify
	verify := New(config)
	require.NoError(t, verify.Setup(ctx))
	t.Cleanup(func() {
		_ = verify.Close(context.Background())
	})

	expected := map[string]int{
		"product":          2,
		"category":         4,
		"customer":         2,
		"review":           2,
		"product_category": 2,
		"product_similar":  1,
	}
	for table, count := range expected {
		assert.Equal(t, count, countRows(ctx, t, verify, table), "table %s", table)
	}

	var parent int
	require.NoError(t, verify.conn.QueryRow(ctx,
		"SELECT parent_id FROM category WHERE category_id = 22").Scan(&parent))
	assert.Equal(t, 1000, parent)

	var similar string
	require.NoError(t, verify.conn.QueryRow(ctx,
		"SELECT similar_asin FROM product_similar WHERE asin = '0827229534'").Scan(&similar))
	assert.Equal(t, "0804215715", similar)
}
