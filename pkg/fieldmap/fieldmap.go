// Package fieldmap translates loosely-typed request payloads into ordered
// column/value pairs through a statically declared whitelist. Column names
// only ever come from the whitelist, and values are meant to be bound as
// query parameters.
package fieldmap

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when none of the whitelisted keys is present.
var ErrEmpty = errors.New("no recognised fields in payload")

// Transform converts a raw payload value before it is bound.
type Transform func(v any) (any, error)

// Field maps one external key to one storage column.
type Field struct {
	Key       string
	Column    string
	Transform Transform
}

// FieldError reports a value rejected by a field's transform.
type FieldError struct {
	Key string
	Err error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Key, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

// Assignments is the ordered result of mapping a payload.
type Assignments struct {
	Columns []string
	Values  []any
}

func (a Assignments) Len() int { return len(a.Columns) }

// Value returns the value bound to column.
func (a Assignments) Value(column string) (any, bool) {
	for i, c := range a.Columns {
		if c == column {
			return a.Values[i], true
		}
	}
	return nil, false
}

// Whitelist is an ordered, immutable set of fields.
type Whitelist struct {
	fields   []Field
	byKey    map[string]int
	byColumn map[string]int
}

// New builds a whitelist. Whitelists are declared at package level, so a
// duplicate key or column is a programming error and panics.
func New(fields ...Field) *Whitelist {
	w := &Whitelist{
		fields:   make([]Field, 0, len(fields)),
		byKey:    make(map[string]int, len(fields)),
		byColumn: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Key == "" || f.Column == "" {
			panic("fieldmap: empty key or column")
		}
		if _, dup := w.byKey[f.Key]; dup {
			panic("fieldmap: duplicate key " + f.Key)
		}
		if _, dup := w.byColumn[f.Column]; dup {
			panic("fieldmap: duplicate column " + f.Column)
		}
		w.byKey[f.Key] = len(w.fields)
		w.byColumn[f.Column] = len(w.fields)
		w.fields = append(w.fields, f)
	}
	return w
}

// Extend returns a new whitelist with extra fields appended.
func (w *Whitelist) Extend(fields ...Field) *Whitelist {
	all := make([]Field, 0, len(w.fields)+len(fields))
	all = append(all, w.fields...)
	all = append(all, fields...)
	return New(all...)
}

// Fields returns a copy of the declared fields in order.
func (w *Whitelist) Fields() []Field {
	out := make([]Field, len(w.fields))
	copy(out, w.fields)
	return out
}

// Columns returns the declared columns in order.
func (w *Whitelist) Columns() []string {
	out := make([]string, len(w.fields))
	for i, f := range w.fields {
		out[i] = f.Column
	}
	return out
}

// Keys returns the declared external keys in order.
func (w *Whitelist) Keys() []string {
	out := make([]string, len(w.fields))
	for i, f := range w.fields {
		out[i] = f.Key
	}
	return out
}

func (w *Whitelist) Column(key string) (string, bool) {
	i, ok := w.byKey[key]
	if !ok {
		return "", false
	}
	return w.fields[i].Column, true
}

func (w *Whitelist) Key(column string) (string, bool) {
	i, ok := w.byColumn[column]
	if !ok {
		return "", false
	}
	return w.fields[i].Key, true
}

func (w *Whitelist) Has(key string) bool {
	_, ok := w.byKey[key]
	return ok
}

// Pick returns the subset of input whose keys are whitelisted. A key mapped
// to nil is present; a missing key is not.
func (w *Whitelist) Pick(input map[string]any) map[string]any {
	out := make(map[string]any)
	for _, f := range w.fields {
		if v, ok := input[f.Key]; ok {
			out[f.Key] = v
		}
	}
	return out
}

// Map walks the whitelist in declaration order and emits the column and the
// transformed value of every key present in input. Unknown keys are ignored.
func (w *Whitelist) Map(input map[string]any) (Assignments, error) {
	a := Assignments{}
	for _, f := range w.fields {
		v, ok := input[f.Key]
		if !ok {
			continue
		}
		if f.Transform != nil {
			tv, err := f.Transform(v)
			if err != nil {
				return Assignments{}, &FieldError{Key: f.Key, Err: err}
			}
			v = tv
		}
		a.Columns = append(a.Columns, f.Column)
		a.Values = append(a.Values, v)
	}
	if a.Len() == 0 {
		return Assignments{}, ErrEmpty
	}
	return a, nil
}
