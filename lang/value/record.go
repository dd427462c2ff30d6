package value

import (
	"fmt"
	"sort"
)

// Record is a named tuple of tag-labelled fields (spec §3). fields is kept
// sorted and unique; find-in-fields (FieldIndex) binary-searches it. This is,
// per spec §4.1, "the only performance-critical lookup in the value layer".
// Grounded on original_source/src/builtins/records.rs: new-record sorts and
// rejects duplicate tags at construction time, and a record built through
// new-class-record additionally carries a class value used for method
// dispatch (spec §4.8's ".method" sugar and §9 supplemented features).
type Record struct {
	name   Keyword
	fields []Keyword // sorted, unique
	values []Value
	class  Value // Nil unless built via NewClassRecord
}

var _ Value = (*Record)(nil)

// NewRecord builds a record named `name` with the given fields, all values
// initialized to Nil. It returns an error if any field tag is duplicated.
func NewRecord(name Keyword, fields []Keyword) (*Record, error) {
	return newRecordWithClass(name, fields, Nil)
}

// NewClassRecord builds a record like NewRecord but attaches class as the
// record's class value, used for `.method` dispatch.
func NewClassRecord(class Value, name Keyword, fields []Keyword) (*Record, error) {
	return newRecordWithClass(name, fields, class)
}

func newRecordWithClass(name Keyword, fields []Keyword, class Value) (*Record, error) {
	sorted := append([]Keyword(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("duplicated field for record: %s", sorted[i])
		}
	}
	values := make([]Value, len(sorted))
	for i := range values {
		values[i] = Nil
	}
	return &Record{name: name, fields: sorted, values: values, class: class}, nil
}

// FieldIndex performs the sorted-fields binary search (spec §4.1
// find-in-fields) and reports whether tag is one of this record's fields.
func (r *Record) FieldIndex(tag Keyword) (int, bool) {
	i := sort.Search(len(r.fields), func(i int) bool { return r.fields[i] >= tag })
	if i < len(r.fields) && r.fields[i] == tag {
		return i, true
	}
	return 0, false
}

// Get returns the value of field tag, or (Nil, false) if the record has no
// such field.
func (r *Record) Get(tag Keyword) (Value, bool) {
	i, ok := r.FieldIndex(tag)
	if !ok {
		return Nil, false
	}
	return r.values[i], true
}

// With returns a new record with field tag set to v. It is an error to name
// a field the record does not have.
func (r *Record) With(tag Keyword, v Value) (*Record, error) {
	i, ok := r.FieldIndex(tag)
	if !ok {
		return nil, fmt.Errorf("record %s has no field %s", r.name, tag)
	}
	cp := &Record{name: r.name, fields: r.fields, class: r.class}
	cp.values = append([]Value(nil), r.values...)
	cp.values[i] = v
	return cp, nil
}

func (r *Record) Name() Keyword     { return r.name }
func (r *Record) Fields() []Keyword { return r.fields }
func (r *Record) Class() Value      { return r.class }

func (r *Record) String() string {
	s := "(%" + string(r.name)
	for i, f := range r.fields {
		s += " " + f.String() + " " + ProgramForm(r.values[i])
	}
	return s + ")"
}

func (r *Record) Type() string { return "record" }
