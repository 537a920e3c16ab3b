package abi

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/oasislabs/evm-abi/address"
)

// word renders n as one hex encoded word.
func word(n uint64) string {
	return fmt.Sprintf("%064x", n)
}

// paddedWords renders s left aligned and zero padded to whole words.
func paddedWords(s string) string {
	h := hex.EncodeToString([]byte(s))
	if rem := len(h) % 64; rem != 0 {
		h += strings.Repeat("0", 64-rem)
	}
	return h
}

func words(parts ...string) []byte {
	b, err := hex.DecodeString(strings.Join(parts, ""))
	if err != nil {
		panic(err)
	}
	return b
}

func requireValueEqual(t *testing.T, expected, actual Value) {
	t.Helper()
	require.True(t, expected.Equal(actual), "expected %s, got %s", expected, actual)
}

func mustBigInt(t *testing.T, s string) Value {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 0)
	require.True(t, ok, s)
	v, err := NewBigInt(n)
	require.NoError(t, err)
	return v
}

func stringArray(elems ...string) Value {
	vs := make([]Value, len(elems))
	for i, e := range elems {
		vs[i] = NewString(e)
	}
	return NewSequence(vs...)
}

func TestEncodeTupleWithStringArray(t *testing.T) {
	t.Parallel()

	typ := MustTypeOf("(uint256,string[])")
	value := NewSequence(NewUint64(33), stringArray("1234", "5678"))

	expected := words(
		word(33),
		word(0x40), // offset of the string array, right after the two head words
		word(2),
		word(0x40), // offsets inside the array are relative to its first element
		word(0x80),
		word(4), paddedWords("1234"),
		word(4), paddedWords("5678"),
	)

	encoded, err := typ.Encode(value)
	require.NoError(t, err)
	require.Equal(t, expected, encoded)

	// the same region as a list of top level arguments
	args, err := Encode(typ.Components(), value.Elems())
	require.NoError(t, err)
	require.Equal(t, expected, args)

	decoded, err := typ.Decode(encoded)
	require.NoError(t, err)
	requireValueEqual(t, value, decoded)
}

func TestEncodeSolidityExamples(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		types    string
		values   []Value
		expected []byte
	}{
		{
			name:     "baz(uint32,bool)",
			types:    "(uint32,bool)",
			values:   []Value{NewUint64(69), NewBool(true)},
			expected: words(word(69), word(1)),
		},
		{
			name:  "bar(bytes3[2])",
			types: "(bytes3[2])",
			values: []Value{NewSequence(
				NewBytes([]byte("abc")),
				NewBytes([]byte("def")),
			)},
			expected: words(paddedWords("abc"), paddedWords("def")),
		},
		{
			name:  "sam(bytes,bool,uint256[])",
			types: "(bytes,bool,uint256[])",
			values: []Value{
				NewBytes([]byte("dave")),
				NewBool(true),
				NewSequence(NewUint64(1), NewUint64(2), NewUint64(3)),
			},
			expected: words(
				word(0x60), word(1), word(0xa0),
				word(4), paddedWords("dave"),
				word(3), word(1), word(2), word(3),
			),
		},
		{
			name:  "f(uint256,uint32[],bytes10,bytes)",
			types: "(uint256,uint32[],bytes10,bytes)",
			values: []Value{
				NewUint64(0x123),
				NewSequence(NewUint64(0x456), NewUint64(0x789)),
				NewBytes([]byte("1234567890")),
				NewBytes([]byte("Hello, world!")),
			},
			expected: words(
				word(0x123), word(0x80), paddedWords("1234567890"), word(0xe0),
				word(2), word(0x456), word(0x789),
				word(13), paddedWords("Hello, world!"),
			),
		},
		{
			name:  "g(uint256[][],string[])",
			types: "(uint256[][],string[])",
			values: []Value{
				NewSequence(
					NewSequence(NewUint64(1), NewUint64(2)),
					NewSequence(NewUint64(3)),
				),
				stringArray("one", "two", "three"),
			},
			expected: words(
				word(0x40), word(0x140),
				word(2), word(0x40), word(0xa0),
				word(2), word(1), word(2),
				word(1), word(3),
				word(3), word(0x60), word(0xa0), word(0xe0),
				word(3), paddedWords("one"),
				word(3), paddedWords("two"),
				word(5), paddedWords("three"),
			),
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			types := MustTypeOf(testCase.types).Components()

			encoded, err := Encode(types, testCase.values)
			require.NoError(t, err)
			require.Equal(t, hex.EncodeToString(testCase.expected), hex.EncodeToString(encoded))

			decoded, err := Decode(encoded, types)
			require.NoError(t, err)
			requireValueEqual(t, NewSequence(testCase.values...), NewSequence(decoded...))
		})
	}
}

func TestEncodeStaticLayout(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		typeStr string
		value   Value
	}{
		{"bool", NewBool(false)},
		{"uint64", NewUint64(1 << 40)},
		{"int16", NewInt64(-300)},
		{"address", NewAddress(address.Address{1, 2, 3})},
		{"bytes7", NewBytes([]byte("abcdefg"))},
		{"uint8[3]", NewSequence(NewUint64(1), NewUint64(2), NewUint64(3))},
		{"(bool,(uint8,bytes1)[2])", NewSequence(
			NewBool(true),
			NewSequence(
				NewSequence(NewUint64(7), NewBytes([]byte{0xaa})),
				NewSequence(NewUint64(8), NewBytes([]byte{0xbb})),
			),
		)},
	}
	for _, testCase := range testCases {
		typ := MustTypeOf(testCase.typeStr)
		wordCount, err := typ.StaticWordCount()
		require.NoError(t, err)

		encoded, err := typ.Encode(testCase.value)
		require.NoError(t, err)
		require.Len(t, encoded, wordCount*WordSize, testCase.typeStr)

		// inlined in a region, a static type takes exactly its own words
		region, err := Encode([]Type{typ, MustTypeOf("uint8")}, []Value{testCase.value, NewUint64(9)})
		require.NoError(t, err)
		require.Equal(t, encoded, region[:len(encoded)], testCase.typeStr)
		require.Equal(t, words(word(9)), region[len(encoded):], testCase.typeStr)
	}
}

func TestEncodeDynamicHeadIsOneWord(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 100)
	types := []Type{MustTypeOf("string"), MustTypeOf("bytes"), MustTypeOf("uint8[]"), MustTypeOf("uint8")}
	values := []Value{
		NewString(long),
		NewBytes([]byte{}),
		NewSequence(NewUint64(1), NewUint64(2)),
		NewUint64(5),
	}
	encoded, err := Encode(types, values)
	require.NoError(t, err)

	// four head words, then the tails in order
	require.Equal(t, word(4*WordSize), hex.EncodeToString(encoded[0:32]))
	stringTail := WordSize + paddedLen(len(long))
	require.Equal(t, word(uint64(4*WordSize+stringTail)), hex.EncodeToString(encoded[32:64]))
	require.Equal(t, word(uint64(4*WordSize+stringTail+WordSize)), hex.EncodeToString(encoded[64:96]))
	require.Equal(t, word(5), hex.EncodeToString(encoded[96:128]))

	// empty bytes is a lone length word
	require.Equal(t, word(0), hex.EncodeToString(encoded[4*WordSize+stringTail:4*WordSize+stringTail+WordSize]))
}

func TestEncodeOffsetsIncrease(t *testing.T) {
	t.Parallel()

	typ := MustTypeOf("(string,uint8,bytes,string[],bool,(string,uint8))")
	value := NewSequence(
		NewString("first"),
		NewUint64(1),
		NewBytes(make([]byte, 70)),
		stringArray("a", "b", "c"),
		NewBool(true),
		NewSequence(NewString("nested"), NewUint64(2)),
	)
	encoded, err := typ.Encode(value)
	require.NoError(t, err)

	var offsets []int
	for i, c := range typ.Components() {
		if !c.IsDynamic() {
			continue
		}
		var w Word
		copy(w[:], encoded[i*WordSize:])
		off, ok := wordInt(w, len(encoded))
		require.True(t, ok)
		offsets = append(offsets, off)
	}
	require.Len(t, offsets, 4)
	require.Equal(t, 6*WordSize, offsets[0])
	for i := 1; i < len(offsets); i++ {
		require.Greater(t, offsets[i], offsets[i-1])
	}
}

func TestEncodePadding(t *testing.T) {
	t.Parallel()

	encoded, err := MustTypeOf("bytes3").Encode(NewBytes([]byte{1, 2, 3}))
	require.NoError(t, err)
	require.Len(t, encoded, WordSize)
	require.Equal(t, []byte{1, 2, 3}, encoded[:3])
	require.Equal(t, make([]byte, 29), encoded[3:])

	encoded, err = MustTypeOf("string").Encode(NewString("abc"))
	require.NoError(t, err)
	require.Equal(t, words(word(3), paddedWords("abc")), encoded)

	encoded, err = MustTypeOf("bytes").Encode(NewBytes(make([]byte, 32)))
	require.NoError(t, err)
	require.Len(t, encoded, 2*WordSize)

	encoded, err = MustTypeOf("bytes").Encode(NewBytes(make([]byte, 33)))
	require.NoError(t, err)
	require.Len(t, encoded, 3*WordSize)

	addr := address.Address{0xde, 0xad, 0xbe, 0xef}
	encoded, err = MustTypeOf("address").Encode(NewAddress(addr))
	require.NoError(t, err)
	require.Equal(t, make([]byte, 12), encoded[:12])
	require.Equal(t, addr[:], encoded[12:])
}

func TestEncodeSignedIntegers(t *testing.T) {
	t.Parallel()

	allFF := strings.Repeat("ff", 32)
	testCases := []struct {
		typeStr string
		value   Value
		hexWord string
	}{
		{"int8", NewInt64(-1), allFF},
		{"int256", NewInt64(-1), allFF},
		{"int8", NewInt64(-128), strings.Repeat("ff", 31) + "80"},
		{"int8", NewInt64(127), word(127)},
		{"int64", NewInt64(-9223372036854775808), strings.Repeat("ff", 24) + "8000000000000000"},
		{"int16", NewUint64(300), word(300)},
		{"int256", mustBigInt(t, "-0x8000000000000000000000000000000000000000000000000000000000000000"),
			"80" + strings.Repeat("00", 31)},
	}
	for _, testCase := range testCases {
		typ := MustTypeOf(testCase.typeStr)
		encoded, err := typ.Encode(testCase.value)
		require.NoError(t, err, testCase.typeStr)
		require.Equal(t, testCase.hexWord, hex.EncodeToString(encoded), testCase.typeStr)

		decoded, err := typ.Decode(encoded)
		require.NoError(t, err)
		requireValueEqual(t, testCase.value, decoded)
		require.Zero(t, testCase.value.BigInt().Cmp(decoded.BigInt()))
	}

	decoded, err := MustTypeOf("int8").Decode(words(allFF))
	require.NoError(t, err)
	require.True(t, decoded.IsNegative())
	require.Zero(t, big.NewInt(-1).Cmp(decoded.BigInt()))
}

func TestEncodeIntegerOverflow(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		typeStr string
		value   Value
	}{
		{"uint8", NewUint64(256)},
		{"uint8", NewInt64(-1)},
		{"uint256", NewInt64(-1)},
		{"uint32", NewUint64(1 << 32)},
		{"int8", NewInt64(128)},
		{"int8", NewInt64(-129)},
		{"int8", NewUint64(128)},
		{"int256", NewUint256(new(uint256.Int).Lsh(uint256.NewInt(1), 255))},
		{"int64", mustBigInt(t, "-0x8000000000000001")},
	}
	for _, testCase := range testCases {
		_, err := MustTypeOf(testCase.typeStr).Encode(testCase.value)
		require.ErrorIs(t, err, ErrIntegerOverflow, "%s %s", testCase.typeStr, testCase.value)
	}

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err := NewBigInt(tooBig)
	require.ErrorIs(t, err, ErrIntegerOverflow)
	_, err = NewBigInt(new(big.Int).Sub(minInt256, big.NewInt(1)))
	require.ErrorIs(t, err, ErrIntegerOverflow)

	maxed, err := NewBigInt(new(big.Int).Sub(tooBig, big.NewInt(1)))
	require.NoError(t, err)
	_, err = MustTypeOf("uint256").Encode(maxed)
	require.NoError(t, err)
}

func TestEncodeTypeMismatch(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		typeStr string
		value   Value
	}{
		{"bool", NewUint64(1)},
		{"uint8", NewBool(true)},
		{"address", NewBytes(make([]byte, 20))},
		{"bytes", NewString("not bytes")},
		{"string", NewBytes([]byte("not a string"))},
		{"bytes4", NewBytes([]byte{1, 2, 3})},
		{"bytes4", NewBytes([]byte{1, 2, 3, 4, 5})},
		{"uint8[2]", NewSequence(NewUint64(1))},
		{"uint8[]", NewUint64(1)},
		{"(uint8,bool)", NewSequence(NewUint64(1))},
		{"(uint8,bool)", NewSequence(NewUint64(1), NewBool(true), NewBool(false))},
		{"(uint8,bool)", NewSequence(NewBool(true), NewUint64(1))},
		{"(uint8,bool)", Value{}},
	}
	for _, testCase := range testCases {
		_, err := MustTypeOf(testCase.typeStr).Encode(testCase.value)
		require.ErrorIs(t, err, ErrTypeMismatch, "%s %s", testCase.typeStr, testCase.value)
	}

	_, err := Encode([]Type{MustTypeOf("uint8")}, nil)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Encode([]Type{{}}, []Value{NewUint64(1)})
	require.ErrorIs(t, err, ErrUnsupportedType)

	// the value is checked before anything is sized from the type
	huge := MustTypeOf("uint8[65535][1000]")
	_, err = Encode([]Type{huge}, []Value{NewBool(true)})
	require.ErrorIs(t, err, ErrTypeMismatch)
	_, err = huge.Encode(NewBool(true))
	require.ErrorIs(t, err, ErrTypeMismatch)

	tooLarge := Type{kind: ArrayStatic, childTypes: []Type{huge}, staticLength: 65535}
	_, err = Encode([]Type{tooLarge}, []Value{NewBool(true)})
	require.ErrorIs(t, err, ErrUnsupportedType)
	_, err = tooLarge.Encode(NewBool(true))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestEncodeErrorPath(t *testing.T) {
	t.Parallel()

	typ := MustTypeOf("(uint8,(bool,string[])[])")
	value := NewSequence(
		NewUint64(1),
		NewSequence(
			NewSequence(NewBool(true), stringArray("ok")),
			NewSequence(NewBool(false), NewSequence(NewString("fine"), NewUint64(3))),
		),
	)
	_, err := typ.Encode(value)
	require.ErrorIs(t, err, ErrTypeMismatch)

	var abiErr *Error
	require.ErrorAs(t, err, &abiErr)
	require.Equal(t, OpEncode, abiErr.Op)
	require.Equal(t, []int{1, 1, 1, 1}, abiErr.Path)
	require.Contains(t, err.Error(), "at [1][1][1][1]")
}

func TestEncodeInvalidUTF8(t *testing.T) {
	t.Parallel()

	_, err := MustTypeOf("string").Encode(NewString("\xff\xfe"))
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestEncodeEmptyContainers(t *testing.T) {
	t.Parallel()

	encoded, err := MustTypeOf("()").Encode(NewSequence())
	require.NoError(t, err)
	require.Empty(t, encoded)

	encoded, err = MustTypeOf("uint256[]").Encode(NewSequence())
	require.NoError(t, err)
	require.Equal(t, words(word(0)), encoded)

	encoded, err = Encode(nil, nil)
	require.NoError(t, err)
	require.Empty(t, encoded)
}
