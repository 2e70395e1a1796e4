package constants

import (
	"time"
)

const (
	DefaultBatchSize    = 5000
	DefaultRetryCount   = 3
	DefaultRetryTimeout = 5 * time.Second
	DefaultDBPort       = 5432
	DefaultReportDir    = "out"

	// Placeholders substituted for absent fields on active products.
	// Discontinued products keep NULLs instead (see ingest defaulting rules).
	DiscontinuedTitle = "discontinued product"
	UnknownTitle      = "unknown"
	UnknownGroup      = "unknown"

	EnvPrefix = "TP1"
)

// Destination table names. TableLoadOrder flushes parents before children
// so every FK dependency among them is satisfied at write time.
const (
	TableProduct         = "product"
	TableCategory        = "category"
	TableCustomer        = "customer"
	TableReview          = "review"
	TableProductCategory = "product_category"
	TableProductSimilar  = "product_similar"
)

var TableLoadOrder = []string{
	TableProduct,
	TableCategory,
	TableCustomer,
	TableReview,
	TableProductCategory,
	TableProductSimilar,
}

type ReportFormat string

const (
	FormatCSV     ReportFormat = "csv"
	FormatParquet ReportFormat = "parquet"
)
