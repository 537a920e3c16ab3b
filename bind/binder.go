/*
Package bind maps Go values onto ABI value trees and back.

Every ABI type is declared explicitly: struct fields carry an `abi` tag naming
their ABI type, and top level values either are such structs or are paired
with an abi.Type by the caller. Go type names are never used to guess an ABI
type.

	type Transfer struct {
		To     address.Address `abi:"address"`
		Amount *big.Int        `abi:"uint256"`
		Memo   string          `abi:"string"`
		Legs   []Leg           `abi:"tuple[]"`
		Cache  int             `abi:"-"`
	}

A field tagged `tuple`, `tuple[]` or `tuple[N]` takes its components from the
tagged fields of the nested struct.
*/
package bind

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/oasislabs/evm-abi/abi"
)

// TagName is the struct tag key holding a field's ABI type.
const TagName = "abi"

// TypeResolver names the ABI type of a Go type.
type TypeResolver interface {
	ResolveType(t reflect.Type) (abi.Type, error)
}

// ValueVisitor converts a Go value into the value tree of an ABI type.
type ValueVisitor interface {
	VisitValue(v reflect.Value, t abi.Type) (abi.Value, error)
}

// ValueBuilder stores a decoded value tree of an ABI type into a settable Go
// value.
type ValueBuilder interface {
	BuildValue(dst reflect.Value, v abi.Value, t abi.Type) error
}

// structInfo is the resolved ABI layout of a struct type.
type structInfo struct {
	typ abi.Type
	// fields holds the indices of the tagged fields, in declaration order.
	fields []int
}

// Binder implements TypeResolver, ValueVisitor and ValueBuilder by
// reflection over tagged structs. It is safe for concurrent use.
type Binder struct {
	structs *xsync.Map[reflect.Type, structInfo]
}

// NewBinder returns a Binder with an empty struct cache.
func NewBinder() *Binder {
	return &Binder{structs: xsync.NewMap[reflect.Type, structInfo]()}
}

// ResolveType returns the tuple type of a tagged struct, or of a pointer to
// one.
func (b *Binder) ResolveType(t reflect.Type) (abi.Type, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || isSpecial(t) {
		return abi.Type{}, fmt.Errorf("cannot resolve ABI type of Go %s: only tagged structs describe their own type", t)
	}
	info, err := b.structInfo(t, nil)
	if err != nil {
		return abi.Type{}, err
	}
	return info.typ, nil
}

func (b *Binder) structInfo(t reflect.Type, resolving []reflect.Type) (structInfo, error) {
	if info, ok := b.structs.Load(t); ok {
		return info, nil
	}
	for _, r := range resolving {
		if r == t {
			return structInfo{}, fmt.Errorf("cannot resolve ABI type of Go %s: recursive struct", t)
		}
	}
	resolving = append(resolving, t)

	var info structInfo
	var components []abi.Type
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		if !field.IsExported() {
			return structInfo{}, fmt.Errorf("cannot bind unexported field %s.%s", t, field.Name)
		}
		ft, err := b.fieldType(field, tag, resolving)
		if err != nil {
			return structInfo{}, fmt.Errorf("field %s.%s: %w", t, field.Name, err)
		}
		components = append(components, ft)
		info.fields = append(info.fields, i)
	}
	if components == nil {
		components = []abi.Type{}
	}
	typ, err := abi.MakeTupleType(components)
	if err != nil {
		return structInfo{}, err
	}
	info.typ = typ

	actual, _ := b.structs.LoadOrStore(t, info)
	return actual, nil
}

// fieldType parses a field's tag. A `tuple` tag, optionally followed by
// array suffixes, takes its components from the struct the field's Go type
// holds once the same number of slice or array layers are removed.
func (b *Binder) fieldType(field reflect.StructField, tag string, resolving []reflect.Type) (abi.Type, error) {
	if !strings.HasPrefix(tag, "tuple") {
		return abi.TypeOf(tag)
	}
	suffix := tag[len("tuple"):]
	inner := field.Type
	for i := strings.Count(suffix, "["); i > 0; i-- {
		inner = derefType(inner)
		if inner.Kind() != reflect.Slice && inner.Kind() != reflect.Array {
			return abi.Type{}, fmt.Errorf("tag %q needs a slice or array, have %s", tag, field.Type)
		}
		inner = inner.Elem()
	}
	inner = derefType(inner)
	if inner.Kind() != reflect.Struct || isSpecial(inner) {
		return abi.Type{}, fmt.Errorf("tag %q needs a struct, have %s", tag, field.Type)
	}
	info, err := b.structInfo(inner, resolving)
	if err != nil {
		return abi.Type{}, err
	}
	return abi.TypeOf(info.typ.String() + suffix)
}

// fields returns the tagged fields of struct value v.
func (b *Binder) fields(v reflect.Value) ([]reflect.Value, abi.Type, error) {
	info, err := b.structInfo(v.Type(), nil)
	if err != nil {
		return nil, abi.Type{}, err
	}
	out := make([]reflect.Value, len(info.fields))
	for i, index := range info.fields {
		out[i] = v.Field(index)
	}
	return out, info.typ, nil
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
