package abi

import (
	"unicode/utf8"

	"github.com/holiman/uint256"
)

// Decode parses data as one head/tail region holding a value of each of
// types, the inverse of Encode. Bytes after the last value are ignored; use
// DecodePrefix to find out how many were read.
func Decode(data []byte, types []Type) ([]Value, error) {
	values, _, err := DecodePrefix(data, types)
	return values, err
}

// DecodePrefix is like Decode and also returns the offset just past the
// furthest byte read, so that callers can reject trailing data.
func DecodePrefix(data []byte, types []Type) ([]Value, int, error) {
	for i, t := range types {
		if err := t.Validate(); err != nil {
			return nil, 0, withPath(err, []int{i})
		}
	}
	r := newWordReader(data)
	values, err := r.decodeRegion(tupleMembers(types), 0, nil)
	if err != nil {
		return nil, 0, err
	}
	return values, r.end, nil
}

// Decode parses the encoding of a single value of type t, the inverse of
// Type.Encode.
func (t Type) Decode(data []byte) (Value, error) {
	v, _, err := t.DecodePrefix(data)
	return v, err
}

// DecodePrefix is like Type.Decode and also returns the offset just past the
// furthest byte read.
func (t Type) DecodePrefix(data []byte) (Value, int, error) {
	if err := t.Validate(); err != nil {
		return Value{}, 0, err
	}
	r := newWordReader(data)
	v, err := r.decodeValue(t, 0, nil)
	if err != nil {
		return Value{}, 0, err
	}
	return v, r.end, nil
}

// decodeRegion reads the members of a region whose head starts at byte
// offset start. Offsets found in the head are relative to start.
func (r *wordReader) decodeRegion(m members, start int, path []int) ([]Value, error) {
	headSize := m.headSize()
	if headSize > len(r.data)-start {
		return nil, newError(OpDecode, KindBufferTooShort, path,
			"head of %d bytes at offset %d, buffer has %d", headSize, start, len(r.data))
	}
	if err := r.charge(m.n*WordSize, path); err != nil {
		return nil, err
	}

	values := make([]Value, m.n)
	pos := start
	for i := 0; i < m.n; i++ {
		t := m.at(i)
		elemPath := childPath(path, i)
		at := pos
		if t.IsDynamic() {
			w, err := r.readWordAt(pos, elemPath)
			if err != nil {
				return nil, err
			}
			// every dynamic payload starts with at least one word
			off, ok := wordInt(w, len(r.data)-start-WordSize)
			if !ok {
				return nil, newError(OpDecode, KindOffsetOutOfBounds, elemPath,
					"offset %s from %d points outside buffer of %d bytes", uint256Hex(w), start, len(r.data))
			}
			at = start + off
		}
		v, err := r.decodeValue(t, at, elemPath)
		if err != nil {
			return nil, err
		}
		values[i] = v
		pos += t.headWords() * WordSize
	}
	return values, nil
}

// decodeValue reads the encoding of a value of type t starting at pos.
func (r *wordReader) decodeValue(t Type, pos int, path []int) (Value, error) {
	switch t.kind {
	case Bool:
		w, err := r.readWordAt(pos, path)
		if err != nil {
			return Value{}, err
		}
		if !isZero(w[:WordSize-1]) || w[WordSize-1] > 1 {
			return Value{}, newError(OpDecode, KindTypeMismatch, path, "improperly encoded bool %x", w)
		}
		return NewBool(w[WordSize-1] == 1), nil

	case Uint, Int:
		w, err := r.readWordAt(pos, path)
		if err != nil {
			return Value{}, err
		}
		return readInteger(t, w, path)

	case Address:
		w, err := r.readWordAt(pos, path)
		if err != nil {
			return Value{}, err
		}
		v := Value{kind: AddressValue}
		if !isZero(w[:WordSize-len(v.addr)]) {
			return Value{}, newError(OpDecode, KindTypeMismatch, path, "improperly encoded address %x", w)
		}
		copy(v.addr[:], w[WordSize-len(v.addr):])
		return v, nil

	case FixedBytes:
		w, err := r.readWordAt(pos, path)
		if err != nil {
			return Value{}, err
		}
		n := int(t.staticLength)
		if !isZero(w[n:]) {
			return Value{}, newError(OpDecode, KindTypeMismatch, path, "non-zero padding after %s", t)
		}
		return NewBytes(w[:n]), nil

	case Bytes, String:
		content, err := r.readLengthPrefixed(pos, path)
		if err != nil {
			return Value{}, err
		}
		if t.kind == Bytes {
			return NewBytes(content), nil
		}
		if !utf8.Valid(content) {
			return Value{}, newError(OpDecode, KindInvalidUTF8, path, "string payload is not valid UTF-8")
		}
		return NewString(string(content)), nil

	case ArrayStatic:
		elems, err := r.decodeRegion(arrayMembers(t.childTypes[0], int(t.staticLength)), pos, path)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: SequenceValue, elems: elems}, nil

	case ArrayDynamic:
		w, err := r.readWordAt(pos, path)
		if err != nil {
			return Value{}, err
		}
		start := pos + WordSize
		// bound the count by what the remaining bytes can hold before allocating
		elemSize := t.childTypes[0].headWords() * WordSize
		if elemSize == 0 {
			elemSize = 1
		}
		count, ok := wordInt(w, (len(r.data)-start)/elemSize)
		if !ok {
			return Value{}, newError(OpDecode, KindOffsetOutOfBounds, path,
				"array length %s exceeds remaining %d bytes", uint256Hex(w), len(r.data)-start)
		}
		elems, err := r.decodeRegion(arrayMembers(t.childTypes[0], count), start, path)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: SequenceValue, elems: elems}, nil

	case Tuple:
		elems, err := r.decodeRegion(tupleMembers(t.childTypes), pos, path)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: SequenceValue, elems: elems}, nil

	default:
		return Value{}, newError(OpDecode, KindUnsupportedType, path, "unknown type kind %d", int(t.kind))
	}
}

// readLengthPrefixed reads a length word at pos and the content following
// it. The content must be present together with its padding.
func (r *wordReader) readLengthPrefixed(pos int, path []int) ([]byte, error) {
	w, err := r.readWordAt(pos, path)
	if err != nil {
		return nil, err
	}
	start := pos + WordSize
	n, ok := wordInt(w, len(r.data)-start)
	if !ok {
		return nil, newError(OpDecode, KindOffsetOutOfBounds, path,
			"length %s exceeds remaining %d bytes", uint256Hex(w), len(r.data)-start)
	}
	padded, err := r.slice(start, paddedLen(n), path)
	if err != nil {
		return nil, err
	}
	if err := r.charge(len(padded), path); err != nil {
		return nil, err
	}
	return padded[:n], nil
}

// readInteger checks that w is the canonical encoding of a t, i.e. zero
// extended for uint and sign extended for int.
func readInteger(t Type, w Word, path []int) (Value, error) {
	v := Value{kind: IntegerValue, signed: t.kind == Int}
	v.integer.SetBytes32(w[:])
	bits := int(t.bitSize)
	if t.kind == Uint {
		if v.integer.BitLen() > bits {
			return Value{}, newError(OpDecode, KindTypeMismatch, path, "word %x is not a valid %s", w, t)
		}
		return v, nil
	}
	var high uint256.Int
	high.SRsh(&v.integer, uint(bits-1))
	if !high.IsZero() && !high.Eq(allOnes) {
		return Value{}, newError(OpDecode, KindTypeMismatch, path, "word %x is not a valid %s", w, t)
	}
	return v, nil
}

func isZero(p []byte) bool {
	for _, b := range p {
		if b != 0 {
			return false
		}
	}
	return true
}

func uint256Hex(w Word) string {
	var u uint256.Int
	u.SetBytes32(w[:])
	return u.Hex()
}
