package postgres

import (
	"strings"
	"testing"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertStatementProduct(t *testing.T) {
	table := destination.Tables()[constants.TableProduct]
	statement := insertStatement(table, 1)

	assert.True(t, strings.HasPrefix(statement, "INSERT INTO product (asin, title, group_name, salesrank, review_total, review_downloaded, review_avg_rating) VALUES ($1, $2, $3, $4, $5, $6, $7)"))
	assert.Contains(t, statement, "ON CONFLICT (asin) DO UPDATE SET")
	assert.Contains(t, statement, "title = EXCLUDED.title")
	assert.Contains(t, statement, "group_name = COALESCE(EXCLUDED.group_name, product.group_name)")
	assert.Contains(t, statement, "review_avg_rating = COALESCE(EXCLUDED.review_avg_rating, product.review_avg_rating)")
}

func TestInsertStatementMultiRow(t *testing.T) {
	table := destination.Tables()[constants.TableCategory]
	statement := insertStatement(table, 3)

	assert.Contains(t, statement, "VALUES ($1, $2, $3), ($4, $5, $6), ($7, $8, $9)")
	assert.Contains(t, statement, "ON CONFLICT (category_id) DO UPDATE SET name = EXCLUDED.name, parent_id = EXCLUDED.parent_id")
}

func TestInsertStatementDoNothingTables(t *testing.T) {
	tables := destination.Tables()
	for _, name := range []string{constants.TableCustomer, constants.TableReview, constants.TableProductCategory, constants.TableProductSimilar} {
		statement := insertStatement(tables[name], 2)
		assert.True(t, strings.HasSuffix(statement, "ON CONFLICT DO NOTHING"), "table %s: %s", name, statement)
		assert.NotContains(t, statement, "DO UPDATE")
	}
}

func TestFlatten(t *testing.T) {
	args := flatten([]destination.Row{{"A1", 1}, {"A2", nil}})
	require.Len(t, args, 4)
	assert.Equal(t, []any{"A1", 1, "A2", nil}, args)
}

func TestFinalizeStatementsCoverEveryTable(t *testing.T) {
	joined := strings.Join(finalizeStatements, "\n")
	for _, table := range constants.TableLoadOrder {
		assert.Contains(t, joined, "ANALYZE "+table)
	}
	// every FK is added conditionally so re-runs stay idempotent
	for _, statement := range finalizeStatements {
		if strings.Contains(statement, "ADD CONSTRAINT") {
			assert.Contains(t, statement, "IF NOT EXISTS (SELECT 1 FROM pg_constraint")
		}
	}
}
