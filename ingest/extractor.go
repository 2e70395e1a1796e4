package ingest

import (
	"context"
	"strconv"
	"strings"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination"
	"github.com/mh131105/TP1-BD/types"
	"github.com/mh131105/TP1-BD/utils/logger"
)

const pairSep = ":"

// categoryState is the last (name, parent) enqueued for a category id.
// A category is re-enqueued only when a later path changes either field,
// so the final upsert leaves the last observation in place.
type categoryState struct {
	name   string
	parent any
}

// Extractor turns one parsed record into destination rows, applying the
// defaulting rules and the run-scoped dedup sets. All state lives in
// memory and is discarded with the run.
type Extractor struct {
	pool *destination.Pool

	seenProducts  *types.Set[string]
	seenCustomers *types.Set[string]
	seenReviews   *types.Set[string]
	seenLinks     *types.Set[string]
	seenSimilar   *types.Set[string]
	categories    map[int]categoryState
	pending       *ForwardRefs[string]

	skipped int64
}

func NewExtractor(pool *destination.Pool) *Extractor {
	return &Extractor{
		pool:          pool,
		seenProducts:  types.NewSet[string](),
		seenCustomers: types.NewSet[string](),
		seenReviews:   types.NewSet[string](),
		seenLinks:     types.NewSet[string](),
		seenSimilar:   types.NewSet[string](),
		categories:    make(map[int]categoryState),
		pending:       NewForwardRefs[string](),
	}
}

// Skipped counts records discarded for having no ASIN.
func (e *Extractor) Skipped() int64 {
	return e.skipped
}

// PendingSimilar counts similarity pairs whose target never showed up;
// they are dropped silently when the run ends.
func (e *Extractor) PendingSimilar() int {
	return e.pending.Pending()
}

// Extract derives and enqueues every row the record yields. Returns an
// error only when a triggered flush fails; that error is fatal upstream.
func (e *Extractor) Extract(ctx context.Context, record *types.ProductRecord) error {
	asin := strings.TrimSpace(record.ASIN)
	if asin == "" {
		e.skipped++
		logger.Debugf("record %d has no asin, skipped", record.ID)
		return nil
	}

	if err := e.pool.Enqueue(ctx, constants.TableProduct, productRow(asin, record)); err != nil {
		return err
	}

	// first sight of this product releases the similarity pairs that were
	// waiting on it
	if e.seenProducts.InsertOnce(asin) {
		for _, waiting := range e.pending.Observe(asin) {
			if err := e.pool.Enqueue(ctx, constants.TableProductSimilar, destination.Row{waiting, asin}); err != nil {
				return err
			}
		}
	}

	if err := e.extractCategories(ctx, asin, record.Categories); err != nil {
		return err
	}
	if err := e.extractReviews(ctx, asin, record.Reviews); err != nil {
		return err
	}
	return e.extractSimilar(ctx, asin, record.Similar)
}

// productRow applies the defaulting rules: absent fields get placeholder
// values on active products but stay NULL on discontinued ones, so a
// discontinued re-observation never clobbers earlier explicit values.
func productRow(asin string, record *types.ProductRecord) destination.Row {
	title := constants.UnknownTitle
	if record.Title != nil {
		title = *record.Title
	}
	return destination.Row{
		asin,
		title,
		fieldOr(record.Group, constants.UnknownGroup, record.Discontinued),
		fieldOr(record.Salesrank, 0, record.Discontinued),
		fieldOr(record.ReviewTotal, 0, record.Discontinued),
		fieldOr(record.ReviewDownloaded, 0, record.Discontinued),
		fieldOr(record.ReviewAvgRating, 0.0, record.Discontinued),
	}
}

func fieldOr[T any](value *T, fallback T, discontinued bool) any {
	if value != nil {
		return *value
	}
	if discontinued {
		return nil
	}
	return fallback
}

// extractCategories upserts every id-bearing segment of every path and
// links the product to each path's leaf. A segment's parent is the
// nearest id-bearing segment before it; segments without an id cannot be
// stored and do not break the chain.
func (e *Extractor) extractCategories(ctx context.Context, asin string, paths []types.CategoryPath) error {
	for _, path := range paths {
		var parent any
		for _, segment := range path {
			if !segment.HasID {
				continue
			}
			state := categoryState{name: segment.Name, parent: parent}
			if previous, found := e.categories[segment.ID]; !found || previous != state {
				e.categories[segment.ID] = state
				if err := e.pool.Enqueue(ctx, constants.TableCategory, destination.Row{segment.ID, segment.Name, parent}); err != nil {
					return err
				}
			}
			parent = segment.ID
		}

		leaf, ok := path.Leaf()
		if !ok {
			continue
		}
		linkKey := asin + pairSep + strconv.Itoa(leaf.ID)
		if e.seenLinks.InsertOnce(linkKey) {
			if err := e.pool.Enqueue(ctx, constants.TableProductCategory, destination.Row{asin, leaf.ID}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Extractor) extractReviews(ctx context.Context, asin string, reviews []types.ReviewEntry) error {
	for _, review := range reviews {
		if e.seenCustomers.InsertOnce(review.CustomerID) {
			if err := e.pool.Enqueue(ctx, constants.TableCustomer, destination.Row{review.CustomerID}); err != nil {
				return err
			}
		}
		reviewKey := asin + pairSep + review.CustomerID + pairSep + review.Date
		if !e.seenReviews.InsertOnce(reviewKey) {
			continue
		}
		row := destination.Row{asin, review.CustomerID, review.Date, review.Rating, review.Votes, review.Helpful}
		if err := e.pool.Enqueue(ctx, constants.TableReview, row); err != nil {
			return err
		}
	}
	return nil
}

// extractSimilar enqueues a directed pair once both endpoints are known
// products; unknown targets wait in the pending map. Self references are
// dropped on the spot.
func (e *Extractor) extractSimilar(ctx context.Context, asin string, targets []string) error {
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" || target == asin {
			continue
		}
		if !e.seenSimilar.InsertOnce(asin + pairSep + target) {
			continue
		}
		if e.seenProducts.Exists(target) {
			if err := e.pool.Enqueue(ctx, constants.TableProductSimilar, destination.Row{asin, target}); err != nil {
				return err
			}
			continue
		}
		e.pending.Add(asin, target)
	}
	return nil
}
