package ingest

import (
	"context"
	"testing"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination"
	"github.com/mh131105/TP1-BD/types"
	"github.com/mh131105/TP1-BD/utils/typeutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	rows      map[string][]destination.Row
	finalized bool
	closed    bool
}

func newMemorySink() *memorySink {
	return &memorySink{rows: make(map[string][]destination.Row)}
}

func (m *memorySink) Setup(_ context.Context) error { return nil }

func (m *memorySink) WriteBatch(_ context.Context, table destination.Table, rows []destination.Row) (int, error) {
	m.rows[table.Name] = append(m.rows[table.Name], rows...)
	return len(rows), nil
}

func (m *memorySink) Finalize(_ context.Context) error {
	m.finalized = true
	return nil
}

func (m *memorySink) Close(_ context.Context) error {
	m.closed = true
	return nil
}

func newTestExtractor() (*Extractor, *memorySink, *destination.Pool) {
	sink := newMemorySink()
	pool := destination.NewPool(sink, 1000)
	return NewExtractor(pool), sink, pool
}

func TestExtractDefaultsActiveProduct(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	require.NoError(t, extractor.Extract(ctx, &types.ProductRecord{ID: 1, ASIN: "A1"}))
	require.NoError(t, pool.Flush(ctx))

	require.Len(t, sink.rows[constants.TableProduct], 1)
	row := sink.rows[constants.TableProduct][0]
	assert.Equal(t, destination.Row{"A1", "unknown", "unknown", 0, 0, 0, 0.0}, row)
}

func TestExtractDiscontinuedKeepsNulls(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	record := &types.ProductRecord{
		ID:           2,
		ASIN:         "A2",
		Title:        typeutils.Ptr(constants.DiscontinuedTitle),
		Discontinued: true,
	}
	require.NoError(t, extractor.Extract(ctx, record))
	require.NoError(t, pool.Flush(ctx))

	require.Len(t, sink.rows[constants.TableProduct], 1)
	row := sink.rows[constants.TableProduct][0]
	assert.Equal(t, destination.Row{"A2", constants.DiscontinuedTitle, nil, nil, nil, nil, nil}, row)
}

func TestExtractSkipsRecordWithoutASIN(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	record := &types.ProductRecord{ID: 3, Title: typeutils.Ptr("orphan")}
	require.NoError(t, extractor.Extract(ctx, record))
	require.NoError(t, pool.Flush(ctx))

	assert.Empty(t, sink.rows)
	assert.Equal(t, int64(1), extractor.Skipped())
}

func TestExtractCategoryHierarchy(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	record := &types.ProductRecord{
		ID:   4,
		ASIN: "A4",
		Categories: []types.CategoryPath{{
			{Name: "Books", ID: 1, HasID: true},
			{Name: "Fiction", ID: 2, HasID: true},
		}},
	}
	require.NoError(t, extractor.Extract(ctx, record))
	require.NoError(t, pool.Flush(ctx))

	require.Len(t, sink.rows[constants.TableCategory], 2)
	assert.Equal(t, destination.Row{1, "Books", nil}, sink.rows[constants.TableCategory][0])
	assert.Equal(t, destination.Row{2, "Fiction", 1}, sink.rows[constants.TableCategory][1])

	// only the leaf is linked
	require.Len(t, sink.rows[constants.TableProductCategory], 1)
	assert.Equal(t, destination.Row{"A4", 2}, sink.rows[constants.TableProductCategory][0])
}

func TestExtractCategoryLastNameWins(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	first := &types.ProductRecord{
		ID: 5, ASIN: "A5",
		Categories: []types.CategoryPath{{{Name: "Old Name", ID: 10, HasID: true}}},
	}
	second := &types.ProductRecord{
		ID: 6, ASIN: "A6",
		Categories: []types.CategoryPath{{{Name: "New Name", ID: 10, HasID: true}}},
	}
	third := &types.ProductRecord{
		ID: 7, ASIN: "A7",
		Categories: []types.CategoryPath{{{Name: "New Name", ID: 10, HasID: true}}},
	}
	require.NoError(t, extractor.Extract(ctx, first))
	require.NoError(t, extractor.Extract(ctx, second))
	require.NoError(t, extractor.Extract(ctx, third))
	require.NoError(t, pool.Flush(ctx))

	// the unchanged third observation was suppressed, the rename collapsed
	// to its final value
	require.Len(t, sink.rows[constants.TableCategory], 1)
	assert.Equal(t, destination.Row{10, "New Name", nil}, sink.rows[constants.TableCategory][0])
}

func TestExtractSegmentsWithoutIDKeepChain(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	record := &types.ProductRecord{
		ID: 8, ASIN: "A8",
		Categories: []types.CategoryPath{{
			{Name: "Books", ID: 1, HasID: true},
			{Name: "General"},
			{Name: "Drama", ID: 3, HasID: true},
		}},
	}
	require.NoError(t, extractor.Extract(ctx, record))
	require.NoError(t, pool.Flush(ctx))

	require.Len(t, sink.rows[constants.TableCategory], 2)
	assert.Equal(t, destination.Row{1, "Books", nil}, sink.rows[constants.TableCategory][0])
	assert.Equal(t, destination.Row{3, "Drama", 1}, sink.rows[constants.TableCategory][1])
}

func TestExtractSimilarForwardResolution(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	// A declares similarity to B before B exists
	require.NoError(t, extractor.Extract(ctx, &types.ProductRecord{ID: 1, ASIN: "A", Similar: []string{"B", "Z"}}))
	require.NoError(t, pool.Flush(ctx))
	assert.Empty(t, sink.rows[constants.TableProductSimilar])

	// B shows up and resolves the parked pair; its own back reference is
	// emitted immediately
	require.NoError(t, extractor.Extract(ctx, &types.ProductRecord{ID: 2, ASIN: "B", Similar: []string{"A"}}))
	require.NoError(t, pool.Flush(ctx))

	assert.ElementsMatch(t, []destination.Row{{"A", "B"}, {"B", "A"}}, sink.rows[constants.TableProductSimilar])
	// Z never appeared
	assert.Equal(t, 1, extractor.PendingSimilar())
}

func TestExtractSimilarSelfPairDropped(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	require.NoError(t, extractor.Extract(ctx, &types.ProductRecord{ID: 1, ASIN: "A", Similar: []string{"A"}}))
	require.NoError(t, pool.Flush(ctx))

	assert.Empty(t, sink.rows[constants.TableProductSimilar])
	assert.Equal(t, 0, extractor.PendingSimilar())
}

func TestExtractReviewsAndCustomers(t *testing.T) {
	extractor, sink, pool := newTestExtractor()
	ctx := context.Background()

	first := &types.ProductRecord{
		ID: 1, ASIN: "A1",
		Reviews: []types.ReviewEntry{
			{Date: "2024-01-01", CustomerID: "C1", Rating: 5, Votes: 2, Helpful: 1},
			{Date: "2024-01-01", CustomerID: "C1", Rating: 5, Votes: 2, Helpful: 1}, // duplicate line
			{Date: "2024-01-02", CustomerID: "C1", Rating: 4, Votes: 0, Helpful: 0},
		},
	}
	second := &types.ProductRecord{
		ID: 2, ASIN: "A2",
		Reviews: []types.ReviewEntry{
			{Date: "2024-02-01", CustomerID: "C1", Rating: 3, Votes: 1, Helpful: 1},
		},
	}
	require.NoError(t, extractor.Extract(ctx, first))
	require.NoError(t, extractor.Extract(ctx, second))
	require.NoError(t, pool.Flush(ctx))

	// C1 is created once even though three reviews reference it
	require.Len(t, sink.rows[constants.TableCustomer], 1)
	assert.Equal(t, destination.Row{"C1"}, sink.rows[constants.TableCustomer][0])

	require.Len(t, sink.rows[constants.TableReview], 3)
	assert.Equal(t, destination.Row{"A1", "C1", "2024-01-01", 5, 2, 1}, sink.rows[constants.TableReview][0])
}
