package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jcnfinancial/dashboard-api/internal/utils"
)

// Record is one row of a SELECT * query, keyed by column name.
type Record map[string]interface{}

// Table is the result of a SELECT * query: column order plus rows.
type Table struct {
	Columns []string
	Records []Record
}

// ScoreRows returns every row of a scores table for the given symbols.
// Byte slices are returned as strings; dates are left as the driver returns them.
func (s *Source) ScoreRows(ctx context.Context, tableName string, symbols []string) (*Table, error) {
	in, args := symbolArgs(symbols)
	if len(args) == 0 {
		return &Table{}, nil
	}

	table, err := s.table(tableName)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE symbol IN (%s)", table, in)
	done := utils.MeasureQuery(tableName, s.log)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", tableName, err)
	}

	out := &Table{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", tableName, err)
		}

		rec := make(Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = values[i]
			}
		}
		out.Records = append(out.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", tableName, err)
	}
	done(len(out.Records))
	return out, nil
}

// DescribeColumns returns the column names of a table without reading rows.
func (s *Source) DescribeColumns(ctx context.Context, tableName string) ([]string, error) {
	table, err := s.table(tableName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", table))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", tableName, err)
	}
	defer rows.Close()

	return rows.Columns()
}

// DateKey renders a date-like column value as a sortable string; "" when unusable.
func DateKey(value interface{}) string {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case string:
		var d sqlDate
		if err := d.parse(v); err == nil {
			return d.Time.UTC().Format(time.RFC3339)
		}
		return v
	case []byte:
		return DateKey(string(v))
	case int64:
		return numericDateKey(v)
	case int32:
		return numericDateKey(int64(v))
	case int:
		return numericDateKey(int64(v))
	case float64:
		return numericDateKey(int64(v))
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// numericDateKey reads YYYYMMDD integers as calendar dates and anything else as a unix
// timestamp, in milliseconds when too large for seconds.
func numericDateKey(n int64) string {
	if n >= 10000101 && n <= 99991231 {
		if t, err := time.Parse("20060102", strconv.FormatInt(n, 10)); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	if n > 1e10 {
		return time.UnixMilli(n).UTC().Format(time.RFC3339)
	}
	return time.Unix(n, 0).UTC().Format(time.RFC3339)
}
