package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates property value representations.
type ValueKind int

const (
	ValueIdent  ValueKind = iota // bare word: stateless, ai
	ValueString                  // double-quoted string
	ValueNumber
	ValueBool
	ValueRef // reference to another entity: #id
)

// Value is a property value. The zero value is the empty ident.
type Value struct {
	Kind ValueKind
	Str  string // ident text, string content, or referenced id
	Num  float64
	Bool bool
}

// Ident returns a bare-word value.
func Ident(s string) Value { return Value{Kind: ValueIdent, Str: s} }

// Str returns a quoted-string value.
func Str(s string) Value { return Value{Kind: ValueString, Str: s} }

// Num returns a numeric value.
func Num(f float64) Value { return Value{Kind: ValueNumber, Num: f} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// Ref returns a reference value pointing at the entity with the given id.
func Ref(id string) Value { return Value{Kind: ValueRef, Str: id} }

// Equal reports semantic equality between two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueNumber:
		return v.Num == o.Num
	case ValueBool:
		return v.Bool == o.Bool
	default:
		return v.Str == o.Str
	}
}

// Text returns the payload of string-like values, and a rendered form otherwise.
func (v Value) Text() string {
	switch v.Kind {
	case ValueIdent, ValueString, ValueRef:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// Notation renders the value in surface syntax.
func (v Value) Notation() string {
	switch v.Kind {
	case ValueIdent:
		return v.Str
	case ValueString:
		return strconv.Quote(v.Str)
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueRef:
		return "#" + v.Str
	}
	return ""
}

// ParseValue interprets a raw value token. Quoted input becomes a string
// value, #id a reference, numerals a number, true/false a bool, everything
// else a bare ident.
func ParseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		if unq, err := strconv.Unquote(raw); err == nil {
			return Str(unq)
		}
		return Str(strings.Trim(raw, `"`))
	}
	if strings.HasPrefix(raw, "#") {
		return Ref(raw[1:])
	}
	switch raw {
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Num(f)
	}
	return Ident(raw)
}

// Property is one key/value pair of an entity or relationship.
type Property struct {
	Key string `json:"key"`
	Val Value  `json:"value"`
}

// Properties is an insertion-ordered key/value list. Order is preserved for
// deterministic rendering but is not semantically significant.
type Properties []Property

// Get returns the value for key.
func (ps Properties) Get(key string) (Value, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p.Val, true
		}
	}
	return Value{}, false
}

// Has reports whether key is present.
func (ps Properties) Has(key string) bool {
	_, ok := ps.Get(key)
	return ok
}

// Set replaces the value for key, or appends it if absent.
func (ps *Properties) Set(key string, v Value) {
	for i, p := range *ps {
		if p.Key == key {
			(*ps)[i].Val = v
			return
		}
	}
	*ps = append(*ps, Property{Key: key, Val: v})
}

// Delete removes key if present and reports whether it was.
func (ps *Properties) Delete(key string) bool {
	for i, p := range *ps {
		if p.Key == key {
			*ps = append((*ps)[:i], (*ps)[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns keys in insertion order.
func (ps Properties) Keys() []string {
	keys := make([]string, len(ps))
	for i, p := range ps {
		keys[i] = p.Key
	}
	return keys
}

// Clone returns a deep copy.
func (ps Properties) Clone() Properties {
	if ps == nil {
		return nil
	}
	out := make(Properties, len(ps))
	copy(out, ps)
	return out
}

// EqualUnordered reports whether two property lists hold the same pairs,
// ignoring insertion order.
func (ps Properties) EqualUnordered(o Properties) bool {
	if len(ps) != len(o) {
		return false
	}
	for _, p := range ps {
		ov, ok := o.Get(p.Key)
		if !ok || !ov.Equal(p.Val) {
			return false
		}
	}
	return true
}

func (p Property) String() string {
	return fmt.Sprintf("%s:%s", p.Key, p.Val.Notation())
}
