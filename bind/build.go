package bind

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/oasislabs/evm-abi/abi"
)

// BuildValue stores v, a decoded value of type t, into dst. Nil pointers on
// the way are allocated.
func (b *Binder) BuildValue(dst reflect.Value, v abi.Value, t abi.Type) error {
	if !dst.CanSet() {
		return fmt.Errorf("cannot build %s into unsettable Go %s", t, dst.Type())
	}
	for dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
	}
	if dst.Kind() == reflect.Interface {
		return fmt.Errorf("%w: cannot build %s into interface %s", abi.ErrTypeMismatch, t, dst.Type())
	}

	switch t.Kind() {
	case abi.Bool:
		if dst.Kind() != reflect.Bool {
			return mismatch(dst, t)
		}
		dst.SetBool(v.Bool())
		return nil

	case abi.Uint, abi.Int:
		return buildInteger(dst, v, t)

	case abi.Address:
		if dst.Kind() != reflect.Array || !addressType.ConvertibleTo(dst.Type()) {
			return mismatch(dst, t)
		}
		dst.Set(reflect.ValueOf(v.Address()).Convert(dst.Type()))
		return nil

	case abi.FixedBytes, abi.Bytes:
		return buildBytes(dst, v.Bytes(), t)

	case abi.String:
		if dst.Kind() != reflect.String {
			return mismatch(dst, t)
		}
		dst.SetString(v.Str())
		return nil

	case abi.ArrayStatic, abi.ArrayDynamic:
		elemType, _ := t.Elem()
		elems := v.Elems()
		switch dst.Kind() {
		case reflect.Slice:
			dst.Set(reflect.MakeSlice(dst.Type(), len(elems), len(elems)))
		case reflect.Array:
			if dst.Len() != len(elems) {
				return fmt.Errorf("%w: %d elements into Go %s", abi.ErrTypeMismatch, len(elems), dst.Type())
			}
		default:
			return mismatch(dst, t)
		}
		for i, elem := range elems {
			if err := b.BuildValue(dst.Index(i), elem, elemType); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil

	case abi.Tuple:
		if dst.Kind() != reflect.Struct || isSpecial(dst.Type()) {
			return mismatch(dst, t)
		}
		fields, _, err := b.fields(dst)
		if err != nil {
			return err
		}
		components := t.Components()
		elems := v.Elems()
		if len(fields) != len(components) || len(elems) != len(components) {
			return fmt.Errorf("%w: Go %s has %d tagged fields for %s", abi.ErrTypeMismatch, dst.Type(), len(fields), t)
		}
		for i, field := range fields {
			if err := b.BuildValue(field, elems[i], components[i]); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", abi.ErrUnsupportedType, t)
	}
}

func buildInteger(dst reflect.Value, v abi.Value, t abi.Type) error {
	switch dst.Type() {
	case bigIntType:
		dst.Set(reflect.ValueOf(v.BigInt()).Elem())
		return nil
	case uint256Type:
		if v.IsNegative() {
			return fmt.Errorf("%w: negative %s into Go %s", abi.ErrIntegerOverflow, v, dst.Type())
		}
		dst.Set(reflect.ValueOf(v.Uint256()).Elem())
		return nil
	}

	n := v.BigInt()
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !n.IsInt64() || dst.OverflowInt(n.Int64()) {
			return overflow(n, dst)
		}
		dst.SetInt(n.Int64())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !n.IsUint64() || dst.OverflowUint(n.Uint64()) {
			return overflow(n, dst)
		}
		dst.SetUint(n.Uint64())
		return nil
	default:
		return mismatch(dst, t)
	}
}

func overflow(n *big.Int, dst reflect.Value) error {
	return fmt.Errorf("%w: %s does not fit in Go %s", abi.ErrIntegerOverflow, n, dst.Type())
}

func buildBytes(dst reflect.Value, data []byte, t abi.Type) error {
	if dst.Kind() != reflect.Slice && dst.Kind() != reflect.Array ||
		dst.Type() == addressType || dst.Type().Elem().Kind() != reflect.Uint8 {
		return mismatch(dst, t)
	}
	switch dst.Kind() {
	case reflect.Slice:
		dst.Set(reflect.MakeSlice(dst.Type(), len(data), len(data)))
	default:
		if dst.Len() != len(data) {
			return fmt.Errorf("%w: %d bytes into Go %s", abi.ErrTypeMismatch, len(data), dst.Type())
		}
	}
	for i, c := range data {
		dst.Index(i).SetUint(uint64(c))
	}
	return nil
}
