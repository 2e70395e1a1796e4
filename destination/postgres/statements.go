package postgres

import (
	"strconv"
	"strings"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination"
)

// insertStatement builds one multi-row insert for the table with the
// conflict handling its semantics need. Batches are collapsed by natural
// key before they get here; an upsert statement cannot touch the same key
// twice.
func insertStatement(table destination.Table, rowCount int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table.Name)
	b.WriteString(" (")
	b.WriteString(strings.Join(table.Columns, ", "))
	b.WriteString(") VALUES ")

	placeholder := 1
	for row := 0; row < rowCount; row++ {
		if row > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for col := range table.Columns {
			if col > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(placeholder))
			placeholder++
		}
		b.WriteByte(')')
	}

	b.WriteByte(' ')
	b.WriteString(conflictClause(table.Name))
	return b.String()
}

// conflictClause: product keeps the latest title but never lets a null
// observation blank out a value already stored (a discontinued marker on
// a later record must not zero earlier explicit fields); category is
// last-write-wins; everything else is insert-once.
func conflictClause(table string) string {
	switch table {
	case constants.TableProduct:
		return "ON CONFLICT (asin) DO UPDATE SET " +
			"title = EXCLUDED.title, " +
			"group_name = COALESCE(EXCLUDED.group_name, product.group_name), " +
			"salesrank = COALESCE(EXCLUDED.salesrank, product.salesrank), " +
			"review_total = COALESCE(EXCLUDED.review_total, product.review_total), " +
			"review_downloaded = COALESCE(EXCLUDED.review_downloaded, product.review_downloaded), " +
			"review_avg_rating = COALESCE(EXCLUDED.review_avg_rating, product.review_avg_rating)"
	case constants.TableCategory:
		return "ON CONFLICT (category_id) DO UPDATE SET name = EXCLUDED.name, parent_id = EXCLUDED.parent_id"
	default:
		return "ON CONFLICT DO NOTHING"
	}
}

func flatten(rows []destination.Row) []any {
	if len(rows) == 0 {
		return nil
	}
	args := make([]any, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		args = append(args, row...)
	}
	return args
}

// Post-load statements, applied once inside a single final transaction.
// The constraints are created only after every table is flushed; a path
// can name a child category before its parent, so checking FKs during the
// load would reject valid data.
var finalizeStatements = []string{
	`DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_category_parent') THEN
        ALTER TABLE category ADD CONSTRAINT fk_category_parent
            FOREIGN KEY (parent_id) REFERENCES category (category_id);
    END IF;
END $$`,
	`DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_product_category_product') THEN
        ALTER TABLE product_category ADD CONSTRAINT fk_product_category_product
            FOREIGN KEY (asin) REFERENCES product (asin);
    END IF;
END $$`,
	`DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_product_category_category') THEN
        ALTER TABLE product_category ADD CONSTRAINT fk_product_category_category
            FOREIGN KEY (category_id) REFERENCES category (category_id);
    END IF;
END $$`,
	`DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_review_product') THEN
        ALTER TABLE review ADD CONSTRAINT fk_review_product
            FOREIGN KEY (asin) REFERENCES product (asin);
    END IF;
END $$`,
	`DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_review_customer') THEN
        ALTER TABLE review ADD CONSTRAINT fk_review_customer
            FOREIGN KEY (customer_id) REFERENCES customer (customer_id);
    END IF;
END $$`,
	`DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_product_similar_source') THEN
        ALTER TABLE product_similar ADD CONSTRAINT fk_product_similar_source
            FOREIGN KEY (asin) REFERENCES product (asin);
    END IF;
END $$`,
	`DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_product_similar_target') THEN
        ALTER TABLE product_similar ADD CONSTRAINT fk_product_similar_target
            FOREIGN KEY (similar_asin) REFERENCES product (asin);
    END IF;
END $$`,
	"ANALYZE product",
	"ANALYZE category",
	"ANALYZE customer",
	"ANALYZE review",
	"ANALYZE product_category",
	"ANALYZE product_similar",
}
