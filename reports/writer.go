package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/parquet-go/parquet-go"
)

// Write renders one result into dir, one file per query, named after it.
// Returns the created path.
func Write(result *Result, dir string, format constants.ReportFormat) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %s", err)
	}
	if format == constants.FormatParquet {
		return writeParquet(result, dir)
	}
	return writeCSV(result, dir)
}

func writeCSV(result *Result, dir string) (string, error) {
	path := filepath.Join(dir, result.Name+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %s", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(result.Columns); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write header: %s", err)
	}
	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, value := range row {
			record[i] = formatValue(value)
		}
		if err := writer.Write(record); err != nil {
			file.Close()
			return "", fmt.Errorf("failed to write row: %s", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to flush report: %s", err)
	}
	return path, file.Close()
}

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindFloat
)

func writeParquet(result *Result, dir string) (string, error) {
	kinds := inferKinds(result)

	group := parquet.Group{}
	for i, column := range result.Columns {
		var node parquet.Node
		switch kinds[i] {
		case kindInt:
			node = parquet.Leaf(parquet.Int64Type)
		case kindFloat:
			node = parquet.Leaf(parquet.DoubleType)
		default:
			node = parquet.String()
		}
		group[column] = parquet.Optional(node)
	}
	schema := parquet.NewSchema(result.Name, group)

	path := filepath.Join(dir, result.Name+".parquet")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %s", err)
	}

	writer := parquet.NewGenericWriter[any](file, schema, parquet.Compression(&parquet.Snappy))
	for _, row := range result.Rows {
		record := make(map[string]any, len(result.Columns))
		for i, column := range result.Columns {
			value := normalize(row[i])
			if value == nil {
				continue
			}
			if kinds[i] == kindString {
				value = formatValue(value)
			}
			record[column] = value
		}
		if _, err := writer.Write([]any{record}); err != nil {
			file.Close()
			return "", fmt.Errorf("failed to write parquet row: %s", err)
		}
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to close parquet writer: %s", err)
	}
	return path, file.Close()
}

// inferKinds picks each column's parquet type from its first non-null
// value; columns that stay entirely null fall back to string.
func inferKinds(result *Result) []columnKind {
	kinds := make([]columnKind, len(result.Columns))
	decided := make([]bool, len(result.Columns))
	for _, row := range result.Rows {
		for i, value := range row {
			if decided[i] {
				continue
			}
			switch normalize(value).(type) {
			case nil:
			case int64:
				kinds[i] = kindInt
				decided[i] = true
			case float64:
				kinds[i] = kindFloat
				decided[i] = true
			default:
				kinds[i] = kindString
				decided[i] = true
			}
		}
	}
	return kinds
}

// normalize maps driver values onto the few types the writers handle.
func normalize(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return value
	}
}

func formatValue(value any) string {
	switch v := normalize(value).(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
