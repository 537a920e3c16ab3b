package abi

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/oasislabs/evm-abi/address"
)

// MarshalToJSON renders v, which must conform to t, as JSON. Integers become
// JSON numbers, addresses EIP-55 strings, byte sequences 0x-prefixed hex
// strings and arrays and tuples JSON arrays.
func (t Type) MarshalToJSON(v Value) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	tree, err := toJSONTree(t, v, nil)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

func toJSONTree(t Type, v Value, path []int) (interface{}, error) {
	switch t.kind {
	case Bool:
		if v.kind != BoolValue {
			return nil, mismatch(t, v, path)
		}
		return v.boolean, nil
	case Uint, Int:
		if v.kind != IntegerValue {
			return nil, mismatch(t, v, path)
		}
		if err := checkIntegerRange(OpEncode, t, v, path); err != nil {
			return nil, err
		}
		return json.Number(v.BigInt().String()), nil
	case Address:
		if v.kind != AddressValue {
			return nil, mismatch(t, v, path)
		}
		return address.ToString(v.addr), nil
	case FixedBytes, Bytes:
		if v.kind != BytesValue {
			return nil, mismatch(t, v, path)
		}
		if t.kind == FixedBytes && len(v.data) != int(t.staticLength) {
			return nil, newError(OpEncode, KindTypeMismatch, path, "%d bytes for %s", len(v.data), t)
		}
		return "0x" + hex.EncodeToString(v.data), nil
	case String:
		if v.kind != StringValue {
			return nil, mismatch(t, v, path)
		}
		return v.str, nil
	case ArrayStatic, ArrayDynamic, Tuple:
		if v.kind != SequenceValue {
			return nil, mismatch(t, v, path)
		}
		m, err := sequenceMembers(OpEncode, t, len(v.elems), path)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(v.elems))
		for i, e := range v.elems {
			out[i], err = toJSONTree(m.at(i), e, childPath(path, i))
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, newError(OpEncode, KindUnsupportedType, path, "unknown type kind %d", int(t.kind))
	}
}

// sequenceMembers returns the member types of an array or tuple holding n
// elements, checking n against the declared length.
func sequenceMembers(op Op, t Type, n int, path []int) (members, error) {
	switch t.kind {
	case ArrayDynamic:
		return arrayMembers(t.childTypes[0], n), nil
	case ArrayStatic:
		if n != int(t.staticLength) {
			return members{}, newError(op, KindTypeMismatch, path, "%d elements for %s", n, t)
		}
		return arrayMembers(t.childTypes[0], n), nil
	default:
		if n != len(t.childTypes) {
			return members{}, newError(op, KindTypeMismatch, path, "%d elements for %s", n, t)
		}
		return tupleMembers(t.childTypes), nil
	}
}

// UnmarshalFromJSON parses the JSON rendering of a value of type t. Besides
// the forms produced by MarshalToJSON it accepts integers given as decimal or
// 0x-prefixed hex strings.
func (t Type) UnmarshalFromJSON(data []byte) (Value, error) {
	if err := t.Validate(); err != nil {
		return Value{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return Value{}, fmt.Errorf("cannot unmarshal JSON for %s: %w", t, err)
	}
	return fromJSONTree(t, tree, nil)
}

func fromJSONTree(t Type, tree interface{}, path []int) (Value, error) {
	switch t.kind {
	case Bool:
		b, ok := tree.(bool)
		if !ok {
			return Value{}, jsonMismatch(t, tree, path)
		}
		return NewBool(b), nil
	case Uint, Int:
		n, err := jsonInteger(tree)
		if err != nil {
			return Value{}, newError(OpDecode, KindTypeMismatch, path, "cannot cast %v to %s: %v", tree, t, err)
		}
		v, err := NewBigInt(n)
		if err != nil {
			return Value{}, newError(OpDecode, KindIntegerOverflow, path, "%s does not fit in %s", n, t)
		}
		if n.Sign() >= 0 {
			v.signed = t.kind == Int
		}
		if err := checkIntegerRange(OpDecode, t, v, path); err != nil {
			return Value{}, err
		}
		return v, nil
	case Address:
		s, ok := tree.(string)
		if !ok {
			return Value{}, jsonMismatch(t, tree, path)
		}
		addr, err := address.FromString(s)
		if err != nil {
			return Value{}, &Error{Op: OpDecode, Kind: KindTypeMismatch, Path: path, Cause: err}
		}
		return NewAddress(addr), nil
	case FixedBytes, Bytes:
		s, ok := tree.(string)
		if !ok || !strings.HasPrefix(s, "0x") {
			return Value{}, jsonMismatch(t, tree, path)
		}
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return Value{}, &Error{Op: OpDecode, Kind: KindTypeMismatch, Path: path, Cause: err}
		}
		if t.kind == FixedBytes && len(b) != int(t.staticLength) {
			return Value{}, newError(OpDecode, KindTypeMismatch, path, "%d bytes for %s", len(b), t)
		}
		return NewBytes(b), nil
	case String:
		s, ok := tree.(string)
		if !ok {
			return Value{}, jsonMismatch(t, tree, path)
		}
		if !utf8.ValidString(s) {
			return Value{}, newError(OpDecode, KindInvalidUTF8, path, "string is not valid UTF-8")
		}
		return NewString(s), nil
	case ArrayStatic, ArrayDynamic, Tuple:
		list, ok := tree.([]interface{})
		if !ok {
			return Value{}, jsonMismatch(t, tree, path)
		}
		m, err := sequenceMembers(OpDecode, t, len(list), path)
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, len(list))
		for i, item := range list {
			elems[i], err = fromJSONTree(m.at(i), item, childPath(path, i))
			if err != nil {
				return Value{}, err
			}
		}
		return Value{kind: SequenceValue, elems: elems}, nil
	default:
		return Value{}, newError(OpDecode, KindUnsupportedType, path, "unknown type kind %d", int(t.kind))
	}
}

func jsonInteger(tree interface{}) (*big.Int, error) {
	var s string
	switch x := tree.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = x
	default:
		return nil, fmt.Errorf("not a number")
	}
	base := 10
	if strings.HasPrefix(s, "0x") {
		s, base = s[2:], 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

func jsonMismatch(t Type, tree interface{}, path []int) error {
	return newError(OpDecode, KindTypeMismatch, path, "cannot cast JSON %T to %s", tree, t)
}
