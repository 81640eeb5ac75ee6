package sqlclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// The remote store hands back JSON numbers while database/sql drivers hand
// back native Go values; the accessors below read either.

// Int64 returns column col as an integer, or 0 when NULL or absent.
func (r Row) Int64(col string) int64 {
	v, _ := toInt64(r[col])
	return v
}

// NullInt64 returns nil when col is NULL or absent.
func (r Row) NullInt64(col string) *int64 {
	v, ok := toInt64(r[col])
	if !ok {
		return nil
	}
	return &v
}

func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (r Row) NullString(col string) *string {
	if r[col] == nil {
		return nil
	}
	s := r.String(col)
	return &s
}

// Bool reads integer 0/1 columns as well as native booleans.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		n, _ := toInt64(v)
		return n != 0
	}
}

// Time reads a unix-millisecond column.
func (r Row) Time(col string) time.Time {
	return time.UnixMilli(r.Int64(col)).UTC()
}

func (r Row) NullTime(col string) *time.Time {
	n := r.NullInt64(col)
	if n == nil {
		return nil
	}
	t := time.UnixMilli(*n).UTC()
	return &t
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return int64(f), err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
