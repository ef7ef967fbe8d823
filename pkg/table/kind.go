package table

import "strings"

// Kind classifies a column as numeric (aggregatable) or categorical (groupable).
type Kind int

const (
	// Categorical columns hold text, booleans, dates and anything non-numeric.
	Categorical Kind = iota
	// Numeric columns hold integers, floats or decimals.
	Numeric
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

var numericTypes = map[string]struct{}{
	"TINYINT":   {},
	"SMALLINT":  {},
	"INTEGER":   {},
	"INT":       {},
	"BIGINT":    {},
	"HUGEINT":   {},
	"UTINYINT":  {},
	"USMALLINT": {},
	"UINTEGER":  {},
	"UBIGINT":   {},
	"UHUGEINT":  {},
	"FLOAT":     {},
	"REAL":      {},
	"DOUBLE":    {},
	"DECIMAL":   {},
	"NUMERIC":   {},
	"INT1":      {},
	"INT2":      {},
	"INT4":      {},
	"INT8":      {},
	"FLOAT4":    {},
	"FLOAT8":    {},
}

// KindOf classifies a declared type name. Parameters such as DECIMAL(18,3)
// are ignored. Unknown and empty type names are categorical.
func KindOf(typeName string) Kind {
	base := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if _, ok := numericTypes[base]; ok {
		return Numeric
	}
	return Categorical
}
