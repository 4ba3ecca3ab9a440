package table

// Row is one data line keyed by header name, in header order
type Row struct {
	Line   int // 1-based record number, header excluded
	keys   []string
	values map[string]string
}

// newRow maps record onto the unique header keys. A duplicated header name
// keeps its first position and its last value; fields past the end of the
// record are absent.
func newRow(line int, header, keys []string, record []string) *Row {
	values := make(map[string]string, len(keys))
	for i, name := range header {
		if i < len(record) {
			values[name] = record[i]
		}
	}
	return &Row{Line: line, keys: keys, values: values}
}

// Get returns the raw value of a column
func (r *Row) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Pop returns the raw value of a column and removes it from the row
func (r *Row) Pop(name string) (string, bool) {
	v, ok := r.values[name]
	if ok {
		delete(r.values, name)
	}
	return v, ok
}

// Len returns the number of columns present
func (r *Row) Len() int {
	return len(r.values)
}

// Each calls fn for every present column in header order
func (r *Row) Each(fn func(key, value string)) {
	for _, k := range r.keys {
		if v, ok := r.values[k]; ok {
			fn(k, v)
		}
	}
}
