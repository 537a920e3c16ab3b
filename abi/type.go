package abi

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the base category of an ABI type.
type Kind int

const (
	// Bool is the `bool` type, encoded as a single word holding 0 or 1.
	Bool Kind = iota + 1
	// Uint is an unsigned integer of 8 to 256 bits.
	Uint
	// Int is a two's-complement signed integer of 8 to 256 bits.
	Int
	// Address is a 20-byte account address.
	Address
	// FixedBytes is `bytes<N>` for 1 <= N <= 32.
	FixedBytes
	// Bytes is the dynamically sized `bytes` type.
	Bytes
	// String is the dynamically sized UTF-8 `string` type.
	String
	// ArrayStatic is `T[N]`.
	ArrayStatic
	// ArrayDynamic is `T[]`.
	ArrayDynamic
	// Tuple is `(T1,T2,...,Tn)`.
	Tuple
)

const (
	// WordSize is the width in bytes of an ABI word.
	WordSize = 32

	maxFixedBytesLength = 32
	maxArrayLength      = math.MaxUint16
	// maxHeadWords caps the head of any type at math.MaxInt32 bytes.
	maxHeadWords = math.MaxInt32 / WordSize
)

// Type is an ABI type tree. The zero Type is invalid; use the Make*
// constructors or TypeOf to build one.
type Type struct {
	kind       Kind
	childTypes []Type

	// bitSize is the width of Uint and Int types.
	bitSize uint16
	// staticLength is the length of FixedBytes and ArrayStatic types.
	staticLength uint16
}

// MakeBoolType returns the `bool` type.
func MakeBoolType() Type {
	return Type{kind: Bool}
}

// MakeUintType returns `uint<bits>`.
func MakeUintType(bits int) (Type, error) {
	if err := checkBitSize(bits); err != nil {
		return Type{}, err
	}
	return Type{kind: Uint, bitSize: uint16(bits)}, nil
}

// MakeIntType returns `int<bits>`.
func MakeIntType(bits int) (Type, error) {
	if err := checkBitSize(bits); err != nil {
		return Type{}, err
	}
	return Type{kind: Int, bitSize: uint16(bits)}, nil
}

// MakeAddressType returns the `address` type.
func MakeAddressType() Type {
	return Type{kind: Address}
}

// MakeFixedBytesType returns `bytes<length>`.
func MakeFixedBytesType(length int) (Type, error) {
	if length < 1 || length > maxFixedBytesLength {
		return Type{}, newError(OpType, KindUnsupportedType, nil,
			"fixed bytes length %d not in range [1, %d]", length, maxFixedBytesLength)
	}
	return Type{kind: FixedBytes, staticLength: uint16(length)}, nil
}

// MakeBytesType returns the dynamic `bytes` type.
func MakeBytesType() Type {
	return Type{kind: Bytes}
}

// MakeStringType returns the `string` type.
func MakeStringType() Type {
	return Type{kind: String}
}

// MakeStaticArrayType returns `elem[length]`.
func MakeStaticArrayType(elem Type, length int) (Type, error) {
	if err := elem.Validate(); err != nil {
		return Type{}, err
	}
	if length < 1 || length > maxArrayLength {
		return Type{}, newError(OpType, KindUnsupportedType, nil,
			"static array length %d not in range [1, %d]", length, maxArrayLength)
	}
	t := Type{kind: ArrayStatic, childTypes: []Type{elem}, staticLength: uint16(length)}
	if err := t.checkHeadSize(); err != nil {
		return Type{}, err
	}
	return t, nil
}

// MakeDynamicArrayType returns `elem[]`.
func MakeDynamicArrayType(elem Type) (Type, error) {
	if err := elem.Validate(); err != nil {
		return Type{}, err
	}
	return Type{kind: ArrayDynamic, childTypes: []Type{elem}}, nil
}

// MakeTupleType returns `(elems[0],...,elems[n-1])`. An empty tuple is
// allowed and occupies no words.
func MakeTupleType(elems []Type) (Type, error) {
	for i, elem := range elems {
		if err := elem.Validate(); err != nil {
			return Type{}, withPath(err, []int{i})
		}
	}
	children := make([]Type, len(elems))
	copy(children, elems)
	t := Type{kind: Tuple, childTypes: children}
	if err := t.checkHeadSize(); err != nil {
		return Type{}, err
	}
	return t, nil
}

func checkBitSize(bits int) error {
	if bits < 8 || bits > 256 || bits%8 != 0 {
		return newError(OpType, KindUnsupportedType, nil,
			"integer bit size %d must be a multiple of 8 in range [8, 256]", bits)
	}
	return nil
}

// Kind returns the base category of t.
func (t Type) Kind() Kind {
	return t.kind
}

// BitSize returns the width of Uint and Int types and 0 otherwise.
func (t Type) BitSize() int {
	return int(t.bitSize)
}

// Length returns the declared length of FixedBytes and ArrayStatic types and
// 0 otherwise.
func (t Type) Length() int {
	return int(t.staticLength)
}

// Elem returns the element type of an array type.
func (t Type) Elem() (Type, bool) {
	if t.kind != ArrayStatic && t.kind != ArrayDynamic {
		return Type{}, false
	}
	return t.childTypes[0], true
}

// Components returns a copy of the member types of a tuple.
func (t Type) Components() []Type {
	if t.kind != Tuple {
		return nil
	}
	out := make([]Type, len(t.childTypes))
	copy(out, t.childTypes)
	return out
}

// Validate checks that t and all nested types are well formed.
func (t Type) Validate() error {
	switch t.kind {
	case Bool, Address, Bytes, String:
		return nil
	case Uint, Int:
		return checkBitSize(int(t.bitSize))
	case FixedBytes:
		if t.staticLength < 1 || t.staticLength > maxFixedBytesLength {
			return newError(OpType, KindUnsupportedType, nil, "fixed bytes length %d not in range [1, %d]",
				t.staticLength, maxFixedBytesLength)
		}
		return nil
	case ArrayStatic, ArrayDynamic:
		if len(t.childTypes) != 1 {
			return newError(OpType, KindUnsupportedType, nil, "array type without element type")
		}
		if t.kind == ArrayStatic && t.staticLength == 0 {
			return newError(OpType, KindUnsupportedType, nil, "static array of length 0")
		}
		if err := t.childTypes[0].Validate(); err != nil {
			return err
		}
		return t.checkHeadSize()
	case Tuple:
		for i, c := range t.childTypes {
			if err := c.Validate(); err != nil {
				return withPath(err, []int{i})
			}
		}
		return t.checkHeadSize()
	default:
		return newError(OpType, KindUnsupportedType, nil, "unknown type kind %d", int(t.kind))
	}
}

// IsDynamic reports whether t is encoded out of line behind an offset.
// bytes, string and T[] are dynamic, as is T[N] or a tuple containing a
// dynamic type. Everything else is static.
func (t Type) IsDynamic() bool {
	switch t.kind {
	case Bytes, String, ArrayDynamic:
		return true
	case ArrayStatic:
		return t.childTypes[0].IsDynamic()
	case Tuple:
		for _, c := range t.childTypes {
			if c.IsDynamic() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// StaticWordCount returns the number of words t occupies in the head of its
// enclosing region. A dynamic type always occupies exactly one word, the
// offset of its payload.
func (t Type) StaticWordCount() (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	return t.headWords(), nil
}

func (t Type) checkHeadSize() error {
	if _, ok := t.boundedHeadWords(); !ok {
		return newError(OpType, KindUnsupportedType, nil,
			"head of %s exceeds %d words", t, maxHeadWords)
	}
	return nil
}

// boundedHeadWords is headWords with overflow checking against maxHeadWords.
func (t Type) boundedHeadWords() (int, bool) {
	if t.IsDynamic() {
		return 1, true
	}
	switch t.kind {
	case ArrayStatic:
		n, ok := t.childTypes[0].boundedHeadWords()
		if !ok || n > maxHeadWords/int(t.staticLength) {
			return 0, false
		}
		return n * int(t.staticLength), true
	case Tuple:
		total := 0
		for _, c := range t.childTypes {
			n, ok := c.boundedHeadWords()
			if !ok || n > maxHeadWords-total {
				return 0, false
			}
			total += n
		}
		return total, true
	default:
		return 1, true
	}
}

// headWords is StaticWordCount for an already validated type.
func (t Type) headWords() int {
	if t.IsDynamic() {
		return 1
	}
	switch t.kind {
	case ArrayStatic:
		return int(t.staticLength) * t.childTypes[0].headWords()
	case Tuple:
		return sumHeadWords(t.childTypes)
	default:
		return 1
	}
}

func sumHeadWords(types []Type) int {
	total := 0
	for _, c := range types {
		total += c.headWords()
	}
	return total
}

// Equal reports whether t and other describe the same ABI type.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind || t.bitSize != other.bitSize ||
		t.staticLength != other.staticLength || len(t.childTypes) != len(other.childTypes) {
		return false
	}
	for i := range t.childTypes {
		if !t.childTypes[i].Equal(other.childTypes[i]) {
			return false
		}
	}
	return true
}

// String returns the canonical Solidity name of t, as used in function
// signatures.
func (t Type) String() string {
	switch t.kind {
	case Bool:
		return "bool"
	case Uint:
		return "uint" + strconv.Itoa(int(t.bitSize))
	case Int:
		return "int" + strconv.Itoa(int(t.bitSize))
	case Address:
		return "address"
	case FixedBytes:
		return "bytes" + strconv.Itoa(int(t.staticLength))
	case Bytes:
		return "bytes"
	case String:
		return "string"
	case ArrayStatic:
		return fmt.Sprintf("%s[%d]", t.childTypes[0].String(), t.staticLength)
	case ArrayDynamic:
		return t.childTypes[0].String() + "[]"
	case Tuple:
		names := make([]string, len(t.childTypes))
		for i, c := range t.childTypes {
			names[i] = c.String()
		}
		return "(" + strings.Join(names, ",") + ")"
	default:
		return fmt.Sprintf("<invalid kind %d>", int(t.kind))
	}
}

// TypeOf parses a canonical ABI type name such as `uint256`, `bytes32[]`
// or `(address,(string,bool)[2])`.
func TypeOf(str string) (Type, error) {
	switch {
	case strings.HasSuffix(str, "]"):
		open := strings.LastIndex(str, "[")
		if open <= 0 {
			return Type{}, parseError(str, "unbalanced array brackets")
		}
		elem, err := TypeOf(str[:open])
		if err != nil {
			return Type{}, err
		}
		lengthStr := str[open+1 : len(str)-1]
		if lengthStr == "" {
			return MakeDynamicArrayType(elem)
		}
		length, err := strconv.ParseUint(lengthStr, 10, 16)
		if err != nil || !canonicalDigits(lengthStr) {
			return Type{}, parseError(str, "bad static array length %q", lengthStr)
		}
		return MakeStaticArrayType(elem, int(length))
	case strings.HasPrefix(str, "("):
		if !strings.HasSuffix(str, ")") {
			return Type{}, parseError(str, "unterminated tuple")
		}
		parts, err := parseTupleContent(str[1 : len(str)-1])
		if err != nil {
			return Type{}, parseError(str, "%v", err)
		}
		elems := make([]Type, len(parts))
		for i, part := range parts {
			elems[i], err = TypeOf(part)
			if err != nil {
				return Type{}, err
			}
		}
		return MakeTupleType(elems)
	case str == "bool":
		return MakeBoolType(), nil
	case str == "address":
		return MakeAddressType(), nil
	case str == "string":
		return MakeStringType(), nil
	case str == "bytes":
		return MakeBytesType(), nil
	case strings.HasPrefix(str, "uint"):
		bits, err := parseSuffix(str, "uint")
		if err != nil {
			return Type{}, err
		}
		return MakeUintType(bits)
	case strings.HasPrefix(str, "int"):
		bits, err := parseSuffix(str, "int")
		if err != nil {
			return Type{}, err
		}
		return MakeIntType(bits)
	case strings.HasPrefix(str, "bytes"):
		length, err := parseSuffix(str, "bytes")
		if err != nil {
			return Type{}, err
		}
		return MakeFixedBytesType(length)
	default:
		return Type{}, parseError(str, "unknown type")
	}
}

// MustTypeOf is like TypeOf but panics on error. Intended for package level
// variables and tests.
func MustTypeOf(str string) Type {
	t, err := TypeOf(str)
	if err != nil {
		panic(err)
	}
	return t
}

func parseSuffix(str, prefix string) (int, error) {
	digits := str[len(prefix):]
	if !canonicalDigits(digits) {
		return 0, parseError(str, "missing or non-canonical size")
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, parseError(str, "bad size %q", digits)
	}
	return n, nil
}

// canonicalDigits reports whether s is a decimal number without sign or
// leading zeros.
func canonicalDigits(s string) bool {
	if s == "" || s[0] < '1' || s[0] > '9' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseTupleContent splits the inside of a tuple on top level commas.
func parseTupleContent(content string) ([]string, error) {
	if content == "" {
		return nil, nil
	}
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, content[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	parts = append(parts, content[start:])
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty tuple member")
		}
	}
	return parts, nil
}

func parseError(str, format string, args ...interface{}) error {
	return newError(OpType, KindUnsupportedType, nil, "cannot parse %q: %s", str, fmt.Sprintf(format, args...))
}
