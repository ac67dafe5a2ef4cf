package domain

// RawRecord is one row of a parsed file: source field names mapped to raw
// values, with the original column order preserved. Parsers produce these;
// the mapper consumes them. A RawRecord is never mutated after creation.
type RawRecord struct {
	Keys   []string
	Values map[string]string
}

// NewRawRecord builds a record from ordered keys and their values.
func NewRawRecord(keys []string, values map[string]string) RawRecord {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return RawRecord{
		Keys:   append([]string(nil), keys...),
		Values: copied,
	}
}

// Get returns the raw value for a source field name.
func (r RawRecord) Get(key string) (string, bool) {
	value, ok := r.Values[key]
	return value, ok
}

// Len returns the number of source fields in the record.
func (r RawRecord) Len() int {
	return len(r.Keys)
}

// NormalizedRecord holds values keyed by canonical field name. Its key set is
// exactly the target fields of the mapping config it was derived from; a nil
// pointer marks a target field that matched no source column.
type NormalizedRecord struct {
	Fields []string           `json:"fields"`
	Values map[string]*string `json:"values"`
}

// Value returns the mapped value for a canonical field, or "" when the field
// is null.
func (n NormalizedRecord) Value(field string) string {
	if v, ok := n.Values[field]; ok && v != nil {
		return *v
	}
	return ""
}

// Has reports whether a canonical field matched a non-null source value.
func (n NormalizedRecord) Has(field string) bool {
	v, ok := n.Values[field]
	return ok && v != nil
}
