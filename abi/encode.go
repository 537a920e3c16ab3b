package abi

import (
	"unicode/utf8"

	"github.com/holiman/uint256"
)

var allOnes = new(uint256.Int).Not(new(uint256.Int))

// members lists the types laid out in one head/tail region: the members of a
// tuple, or n copies of an array element type.
type members struct {
	array bool
	list  []Type
	elem  Type
	n     int
}

func tupleMembers(types []Type) members {
	return members{list: types, n: len(types)}
}

func arrayMembers(elem Type, n int) members {
	return members{array: true, elem: elem, n: n}
}

func (m members) at(i int) Type {
	if m.array {
		return m.elem
	}
	return m.list[i]
}

// headSize is the byte size of the region's head.
func (m members) headSize() int {
	if m.array {
		return m.n * m.elem.headWords() * WordSize
	}
	return sumHeadWords(m.list) * WordSize
}

func childPath(path []int, i int) []int {
	return append(path[:len(path):len(path)], i)
}

// Encode lays out values, paired index by index with types, as one
// head/tail region: the standard encoding of function arguments and return
// values.
func Encode(types []Type, values []Value) ([]byte, error) {
	if len(types) != len(values) {
		return nil, newError(OpEncode, KindTypeMismatch, nil, "%d types for %d values", len(types), len(values))
	}
	for i, t := range types {
		if err := t.Validate(); err != nil {
			return nil, withPath(err, []int{i})
		}
	}
	return encodeRegion(tupleMembers(types), values, nil)
}

// Encode returns the encoding of a single value of type t. Tuples and arrays
// are laid out as their own region; nothing precedes a dynamic value's
// payload.
func (t Type) Encode(v Value) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return encodeValue(t, v, nil)
}

// encodeRegion writes the heads of all members, reserving a placeholder word
// for every dynamic one, then appends the dynamic payloads as the tail and
// patches each placeholder with the payload offset relative to the region
// start.
func encodeRegion(m members, values []Value, path []int) ([]byte, error) {
	buf := newWordBuffer(m.n)
	placeholders := make([]int, m.n)

	for i := 0; i < m.n; i++ {
		t := m.at(i)
		if t.IsDynamic() {
			placeholders[i] = buf.len()
			buf.appendWord(Word{})
			continue
		}
		enc, err := encodeValue(t, values[i], childPath(path, i))
		if err != nil {
			return nil, err
		}
		buf.appendRaw(enc)
	}

	for i := 0; i < m.n; i++ {
		t := m.at(i)
		if !t.IsDynamic() {
			continue
		}
		enc, err := encodeValue(t, values[i], childPath(path, i))
		if err != nil {
			return nil, err
		}
		buf.writeWordAt(placeholders[i], lengthWord(buf.len()))
		buf.appendRaw(enc)
	}
	return buf.bytes(), nil
}

func encodeValue(t Type, v Value, path []int) ([]byte, error) {
	switch t.kind {
	case Bool:
		if v.kind != BoolValue {
			return nil, mismatch(t, v, path)
		}
		var w Word
		if v.boolean {
			w[WordSize-1] = 1
		}
		return w[:], nil

	case Uint, Int:
		if v.kind != IntegerValue {
			return nil, mismatch(t, v, path)
		}
		if err := checkIntegerRange(OpEncode, t, v, path); err != nil {
			return nil, err
		}
		w := uintWord(&v.integer)
		return w[:], nil

	case Address:
		if v.kind != AddressValue {
			return nil, mismatch(t, v, path)
		}
		var w Word
		copy(w[WordSize-len(v.addr):], v.addr[:])
		return w[:], nil

	case FixedBytes:
		if v.kind != BytesValue {
			return nil, mismatch(t, v, path)
		}
		if len(v.data) != int(t.staticLength) {
			return nil, newError(OpEncode, KindTypeMismatch, path,
				"%d bytes for %s", len(v.data), t)
		}
		var w Word
		copy(w[:], v.data)
		return w[:], nil

	case Bytes:
		if v.kind != BytesValue {
			return nil, mismatch(t, v, path)
		}
		return encodeLengthPrefixed(v.data), nil

	case String:
		if v.kind != StringValue {
			return nil, mismatch(t, v, path)
		}
		if !utf8.ValidString(v.str) {
			return nil, newError(OpEncode, KindInvalidUTF8, path, "string is not valid UTF-8")
		}
		return encodeLengthPrefixed([]byte(v.str)), nil

	case ArrayStatic:
		if v.kind != SequenceValue {
			return nil, mismatch(t, v, path)
		}
		if len(v.elems) != int(t.staticLength) {
			return nil, newError(OpEncode, KindTypeMismatch, path,
				"%d elements for %s", len(v.elems), t)
		}
		return encodeRegion(arrayMembers(t.childTypes[0], len(v.elems)), v.elems, path)

	case ArrayDynamic:
		if v.kind != SequenceValue {
			return nil, mismatch(t, v, path)
		}
		region, err := encodeRegion(arrayMembers(t.childTypes[0], len(v.elems)), v.elems, path)
		if err != nil {
			return nil, err
		}
		buf := newWordBuffer(1 + len(region)/WordSize)
		buf.appendWord(lengthWord(len(v.elems)))
		buf.appendRaw(region)
		return buf.bytes(), nil

	case Tuple:
		if v.kind != SequenceValue {
			return nil, mismatch(t, v, path)
		}
		if len(v.elems) != len(t.childTypes) {
			return nil, newError(OpEncode, KindTypeMismatch, path,
				"%d elements for %s", len(v.elems), t)
		}
		return encodeRegion(tupleMembers(t.childTypes), v.elems, path)

	default:
		return nil, newError(OpEncode, KindUnsupportedType, path, "unknown type kind %d", int(t.kind))
	}
}

// encodeLengthPrefixed writes the length word followed by the zero padded
// content.
func encodeLengthPrefixed(p []byte) []byte {
	buf := newWordBuffer(1 + paddedLen(len(p))/WordSize)
	buf.appendWord(lengthWord(len(p)))
	buf.appendPadded(p)
	return buf.bytes()
}

// checkIntegerRange rejects values that do not fit the declared width:
// [0, 2^bits) for uint and [-2^(bits-1), 2^(bits-1)) for int.
func checkIntegerRange(op Op, t Type, v Value, path []int) error {
	bits := int(t.bitSize)
	switch {
	case t.kind == Uint && v.IsNegative():
		return newError(op, KindIntegerOverflow, path, "negative value %s for %s", v.BigInt(), t)
	case t.kind == Uint:
		if v.integer.BitLen() > bits {
			return newError(op, KindIntegerOverflow, path, "%s does not fit in %s", v.BigInt(), t)
		}
	case v.signed:
		var high uint256.Int
		high.SRsh(&v.integer, uint(bits-1))
		if !high.IsZero() && !high.Eq(allOnes) {
			return newError(op, KindIntegerOverflow, path, "%s does not fit in %s", v.BigInt(), t)
		}
	default:
		if v.integer.BitLen() > bits-1 {
			return newError(op, KindIntegerOverflow, path, "%s does not fit in %s", v.BigInt(), t)
		}
	}
	return nil
}

func mismatch(t Type, v Value, path []int) error {
	return newError(OpEncode, KindTypeMismatch, path, "%s value for %s", v.kind, t)
}
