package abi

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"github.com/oasislabs/evm-abi/address"
)

// ValueKind is the shape of a Value. A Value does not know its ABI type;
// the encoder checks the shape against the Type it is paired with.
type ValueKind int

const (
	// BoolValue pairs with bool.
	BoolValue ValueKind = iota + 1
	// IntegerValue pairs with any uintN or intN.
	IntegerValue
	// AddressValue pairs with address.
	AddressValue
	// BytesValue pairs with bytes and bytesN.
	BytesValue
	// StringValue pairs with string.
	StringValue
	// SequenceValue pairs with arrays and tuples.
	SequenceValue
)

func (k ValueKind) String() string {
	switch k {
	case BoolValue:
		return "bool"
	case IntegerValue:
		return "integer"
	case AddressValue:
		return "address"
	case BytesValue:
		return "bytes"
	case StringValue:
		return "string"
	case SequenceValue:
		return "sequence"
	default:
		return fmt.Sprintf("valuekind(%d)", int(k))
	}
}

// Value is one node of a value tree handed to Encode or returned by Decode.
// Integers are kept in a 256-bit word; signed values are stored in two's
// complement over the full 256 bits.
type Value struct {
	kind ValueKind

	boolean bool
	integer uint256.Int
	signed  bool
	addr    address.Address
	data    []byte
	str     string
	elems   []Value
}

var (
	minInt256  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// NewBool returns a bool value.
func NewBool(b bool) Value {
	return Value{kind: BoolValue, boolean: b}
}

// NewUint64 returns an unsigned integer value.
func NewUint64(n uint64) Value {
	v := Value{kind: IntegerValue}
	v.integer.SetUint64(n)
	return v
}

// NewInt64 returns a signed integer value.
func NewInt64(n int64) Value {
	v := Value{kind: IntegerValue, signed: true}
	v.integer.SetUint64(uint64(n))
	if n < 0 {
		// sign extend the upper three limbs
		v.integer[1], v.integer[2], v.integer[3] = ^uint64(0), ^uint64(0), ^uint64(0)
	}
	return v
}

// NewUint256 returns an unsigned integer value holding a copy of n.
func NewUint256(n *uint256.Int) Value {
	v := Value{kind: IntegerValue}
	v.integer.Set(n)
	return v
}

// NewBigInt returns an integer value for n. Negative numbers are signed and
// must not be below -2^255; non-negative numbers must fit in 256 bits.
func NewBigInt(n *big.Int) (Value, error) {
	if n.Sign() < 0 && n.Cmp(minInt256) < 0 || n.Cmp(maxUint256) > 0 {
		return Value{}, newError(OpEncode, KindIntegerOverflow, nil, "%s does not fit in 256 bits", n)
	}
	v := Value{kind: IntegerValue, signed: n.Sign() < 0}
	u, _ := uint256.FromBig(n)
	v.integer = *u
	return v, nil
}

// NewAddress returns an address value.
func NewAddress(a address.Address) Value {
	return Value{kind: AddressValue, addr: a}
}

// NewBytes returns a byte sequence value for both `bytes` and `bytes<N>`.
// The slice is copied.
func NewBytes(b []byte) Value {
	return Value{kind: BytesValue, data: append([]byte{}, b...)}
}

// NewString returns a string value.
func NewString(s string) Value {
	return Value{kind: StringValue, str: s}
}

// NewSequence returns an ordered sequence value for arrays and tuples.
func NewSequence(elems ...Value) Value {
	return Value{kind: SequenceValue, elems: append([]Value{}, elems...)}
}

// Kind returns the shape of v.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Bool returns the boolean held by v.
func (v Value) Bool() bool {
	return v.boolean
}

// Uint256 returns a copy of the raw 256-bit word of an integer value. For
// signed negative values this is the two's complement form.
func (v Value) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&v.integer)
}

// IsNegative reports whether v is a signed integer below zero.
func (v Value) IsNegative() bool {
	return v.signed && v.integer.Sign() < 0
}

// BigInt returns the numeric value of an integer value.
func (v Value) BigInt() *big.Int {
	if v.IsNegative() {
		abs := new(uint256.Int).Neg(&v.integer)
		return new(big.Int).Neg(abs.ToBig())
	}
	return v.integer.ToBig()
}

// Address returns the address held by v.
func (v Value) Address() address.Address {
	return v.addr
}

// Bytes returns the byte sequence held by v. The returned slice must not be
// modified.
func (v Value) Bytes() []byte {
	return v.data
}

// Str returns the string held by v.
func (v Value) Str() string {
	return v.str
}

// Elems returns the elements of a sequence value. The returned slice must not
// be modified.
func (v Value) Elems() []Value {
	return v.elems
}

// Equal reports whether v and other hold the same value. Integers compare by
// numeric value, regardless of how they were constructed.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case BoolValue:
		return v.boolean == other.boolean
	case IntegerValue:
		return v.IsNegative() == other.IsNegative() && v.integer.Eq(&other.integer)
	case AddressValue:
		return v.addr == other.addr
	case BytesValue:
		return bytes.Equal(v.data, other.data)
	case StringValue:
		return v.str == other.str
	case SequenceValue:
		if len(v.elems) != len(other.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(other.elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case BoolValue:
		return fmt.Sprint(v.boolean)
	case IntegerValue:
		return v.BigInt().String()
	case AddressValue:
		return v.addr.String()
	case BytesValue:
		return fmt.Sprintf("0x%x", v.data)
	case StringValue:
		return fmt.Sprintf("%q", v.str)
	case SequenceValue:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}
