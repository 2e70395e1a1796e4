package destination

import (
	"strconv"

	"github.com/mh131105/TP1-BD/constants"
)

// keySep never occurs in ASINs, customer ids or dates.
const keySep = ":"

// Tables returns the destination registry. Column order here is the
// insert order used by the sink's statements.
func Tables() map[string]Table {
	return map[string]Table{
		constants.TableProduct: {
			Name:    constants.TableProduct,
			Columns: []string{"asin", "title", "group_name", "salesrank", "review_total", "review_downloaded", "review_avg_rating"},
			Key:     func(row Row) string { return row[0].(string) },
			Merge:   mergeProduct,
		},
		constants.TableCategory: {
			Name:    constants.TableCategory,
			Columns: []string{"category_id", "name", "parent_id"},
			Key:     func(row Row) string { return strconv.Itoa(row[0].(int)) },
		},
		constants.TableCustomer: {
			Name:    constants.TableCustomer,
			Columns: []string{"customer_id"},
			Key:     func(row Row) string { return row[0].(string) },
		},
		constants.TableReview: {
			Name:      constants.TableReview,
			Columns:   []string{"asin", "customer_id", "review_date", "rating", "votes", "helpful"},
			DependsOn: []string{constants.TableProduct, constants.TableCustomer},
			Key: func(row Row) string {
				return row[0].(string) + keySep + row[1].(string) + keySep + row[2].(string)
			},
		},
		constants.TableProductCategory: {
			Name:      constants.TableProductCategory,
			Columns:   []string{"asin", "category_id"},
			DependsOn: []string{constants.TableProduct, constants.TableCategory},
			Key: func(row Row) string {
				return row[0].(string) + keySep + strconv.Itoa(row[1].(int))
			},
		},
		constants.TableProductSimilar: {
			Name:      constants.TableProductSimilar,
			Columns:   []string{"asin", "similar_asin"},
			DependsOn: []string{constants.TableProduct},
			Key: func(row Row) string {
				return row[0].(string) + keySep + row[1].(string)
			},
		},
	}
}

// mergeProduct keeps the later observation's title but lets nil fields
// fall back to the earlier row, matching the COALESCE semantics of the
// product upsert. A discontinued re-observation must not blank out values
// an earlier record set explicitly.
func mergeProduct(existing, incoming Row) Row {
	merged := make(Row, len(incoming))
	copy(merged, incoming)
	for i := 2; i < len(merged); i++ {
		if merged[i] == nil {
			merged[i] = existing[i]
		}
	}
	return merged
}
