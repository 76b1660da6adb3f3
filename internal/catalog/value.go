package catalog

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// ValueKind is the type held by a PropertyValue.
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueInt
	ValueString
	ValueStringArray
	ValueDate
)

// PropertyValue is a typed metadata value. The zero value is empty.
type PropertyValue struct {
	kind ValueKind
	i    int
	s    string
	sa   []string
	t    time.Time
}

func EmptyValue() PropertyValue               { return PropertyValue{} }
func IntValue(i int) PropertyValue            { return PropertyValue{kind: ValueInt, i: i} }
func StringValue(s string) PropertyValue      { return PropertyValue{kind: ValueString, s: s} }
func DateValue(t time.Time) PropertyValue     { return PropertyValue{kind: ValueDate, t: t} }
func StringArrayValue(sa []string) PropertyValue {
	return PropertyValue{kind: ValueStringArray, sa: slices.Clone(sa)}
}

func (v PropertyValue) Kind() ValueKind { return v.kind }
func (v PropertyValue) IsEmpty() bool   { return v.kind == ValueEmpty }

// Int returns the integer held by v.
func (v PropertyValue) Int() (int, bool) { return v.i, v.kind == ValueInt }

// Str returns the string held by v.
func (v PropertyValue) Str() (string, bool) { return v.s, v.kind == ValueString }

// Strings returns the string array held by v.
func (v PropertyValue) Strings() ([]string, bool) {
	return slices.Clone(v.sa), v.kind == ValueStringArray
}

// Date returns the time held by v.
func (v PropertyValue) Date() (time.Time, bool) { return v.t, v.kind == ValueDate }

// Equal reports whether v and o hold the same value.
func (v PropertyValue) Equal(o PropertyValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueInt:
		return v.i == o.i
	case ValueString:
		return v.s == o.s
	case ValueStringArray:
		return slices.Equal(v.sa, o.sa)
	case ValueDate:
		return v.t.Equal(o.t)
	}
	return true
}

func (v PropertyValue) String() string {
	switch v.kind {
	case ValueInt:
		return strconv.Itoa(v.i)
	case ValueString:
		return v.s
	case ValueStringArray:
		return strings.Join(v.sa, ", ")
	case ValueDate:
		return v.t.Format(time.RFC3339)
	}
	return ""
}
