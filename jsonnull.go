package zen

// JSON null sentinels. A JSON column distinguishes the SQL NULL of the
// column from a stored JSON null value; filters and writes name which
// one they mean explicitly. Writing a plain Go nil to a JSON column is
// an input error, precisely because it cannot express this choice.
type jsonNullKind uint8

const (
	dbNull jsonNullKind = iota + 1
	jsonNull
	anyNull
)

// JSONNullSentinel is the type of the three JSON null markers.
type JSONNullSentinel struct {
	kind jsonNullKind
}

var (
	// DBNull matches (or writes) a column-level SQL NULL.
	DBNull = JSONNullSentinel{kind: dbNull}
	// JSONNull matches (or writes) a stored JSON null value.
	JSONNull = JSONNullSentinel{kind: jsonNull}
	// AnyNull matches either form in filters. It is not writable.
	AnyNull = JSONNullSentinel{kind: anyNull}
)

// IsDBNull reports whether the sentinel is DBNull.
func (s JSONNullSentinel) IsDBNull() bool { return s.kind == dbNull }

// IsJSONNull reports whether the sentinel is JSONNull.
func (s JSONNullSentinel) IsJSONNull() bool { return s.kind == jsonNull }

// IsAnyNull reports whether the sentinel is AnyNull.
func (s JSONNullSentinel) IsAnyNull() bool { return s.kind == anyNull }
