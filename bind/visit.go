package bind

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"

	"github.com/oasislabs/evm-abi/abi"
	"github.com/oasislabs/evm-abi/address"
)

var (
	bigIntType  = reflect.TypeOf(big.Int{})
	uint256Type = reflect.TypeOf(uint256.Int{})
	addressType = reflect.TypeOf(address.Address{})
)

// isSpecial reports whether t is one of the library types bound as a
// scalar rather than by its Go kind.
func isSpecial(t reflect.Type) bool {
	return t == bigIntType || t == uint256Type
}

func mismatch(v reflect.Value, t abi.Type) error {
	return fmt.Errorf("%w: cannot bind Go %s to %s", abi.ErrTypeMismatch, v.Type(), t)
}

// VisitValue converts v into the value tree of t. Integer ranges are left
// for the encoder to check.
func (b *Binder) VisitValue(v reflect.Value, t abi.Type) (abi.Value, error) {
	if !v.IsValid() {
		return abi.Value{}, fmt.Errorf("%w: cannot bind nil to %s", abi.ErrTypeMismatch, t)
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return abi.Value{}, fmt.Errorf("%w: cannot bind nil %s to %s", abi.ErrTypeMismatch, v.Type(), t)
		}
		v = v.Elem()
	}

	switch t.Kind() {
	case abi.Bool:
		if v.Kind() != reflect.Bool {
			return abi.Value{}, mismatch(v, t)
		}
		return abi.NewBool(v.Bool()), nil

	case abi.Uint, abi.Int:
		return visitInteger(v, t)

	case abi.Address:
		if !v.Type().ConvertibleTo(addressType) || v.Kind() != reflect.Array {
			return abi.Value{}, mismatch(v, t)
		}
		return abi.NewAddress(v.Convert(addressType).Interface().(address.Address)), nil

	case abi.FixedBytes, abi.Bytes:
		data, ok := byteContent(v)
		if !ok {
			return abi.Value{}, mismatch(v, t)
		}
		return abi.NewBytes(data), nil

	case abi.String:
		if v.Kind() != reflect.String {
			return abi.Value{}, mismatch(v, t)
		}
		return abi.NewString(v.String()), nil

	case abi.ArrayStatic, abi.ArrayDynamic:
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return abi.Value{}, mismatch(v, t)
		}
		elemType, _ := t.Elem()
		elems := make([]abi.Value, v.Len())
		for i := range elems {
			elem, err := b.VisitValue(v.Index(i), elemType)
			if err != nil {
				return abi.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = elem
		}
		return abi.NewSequence(elems...), nil

	case abi.Tuple:
		components := t.Components()
		var members []reflect.Value
		switch {
		case v.Kind() == reflect.Struct && !isSpecial(v.Type()):
			fields, _, err := b.fields(v)
			if err != nil {
				return abi.Value{}, err
			}
			members = fields
		case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
			for i := 0; i < v.Len(); i++ {
				members = append(members, v.Index(i))
			}
		default:
			return abi.Value{}, mismatch(v, t)
		}
		if len(members) != len(components) {
			return abi.Value{}, fmt.Errorf("%w: %d Go members for %s", abi.ErrTypeMismatch, len(members), t)
		}
		elems := make([]abi.Value, len(members))
		for i, member := range members {
			elem, err := b.VisitValue(member, components[i])
			if err != nil {
				return abi.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = elem
		}
		return abi.NewSequence(elems...), nil

	default:
		return abi.Value{}, fmt.Errorf("%w: %s", abi.ErrUnsupportedType, t)
	}
}

func visitInteger(v reflect.Value, t abi.Type) (abi.Value, error) {
	switch v.Type() {
	case bigIntType:
		n := v.Interface().(big.Int)
		return abi.NewBigInt(&n)
	case uint256Type:
		n := v.Interface().(uint256.Int)
		return abi.NewUint256(&n), nil
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return abi.NewInt64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return abi.NewUint64(v.Uint()), nil
	default:
		return abi.Value{}, mismatch(v, t)
	}
}

// byteContent returns the bytes of a byte slice or byte array.
func byteContent(v reflect.Value) ([]byte, bool) {
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array || v.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	data := make([]byte, v.Len())
	for i := range data {
		data[i] = byte(v.Index(i).Uint())
	}
	return data, true
}
