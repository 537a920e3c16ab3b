package calldata

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/oasislabs/evm-abi/abi"
)

// SelectorSize is the length in bytes of a function selector.
const SelectorSize = 4

// Selector identifies the called function in EVM call data.
type Selector [SelectorSize]byte

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// ErrSelectorMismatch is returned when call data is addressed to a different
// function than the one it is unpacked with.
var ErrSelectorMismatch = errors.New("selector mismatch")

// SelectorOf returns the first four bytes of the Keccak-256 hash of a
// canonical function signature such as `transfer(address,uint256)`.
func SelectorOf(signature string) Selector {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(signature))
	var s Selector
	copy(s[:], hasher.Sum(nil))
	return s
}

// Method describes a contract function by name and argument types.
type Method struct {
	Name    string
	Inputs  []abi.Type
	Outputs []abi.Type
}

// ParseMethod parses a signature of the form `name(type,...)` into a Method
// without outputs.
func ParseMethod(signature string) (Method, error) {
	open := strings.IndexByte(signature, '(')
	if open <= 0 {
		return Method{}, fmt.Errorf("cannot parse method signature (%s): missing name or argument list", signature)
	}
	args, err := abi.TypeOf(signature[open:])
	if err != nil {
		return Method{}, fmt.Errorf("cannot parse method signature (%s): %w", signature, err)
	}
	if args.Kind() != abi.Tuple {
		return Method{}, fmt.Errorf("cannot parse method signature (%s): argument list is not a tuple", signature)
	}
	return Method{Name: signature[:open], Inputs: args.Components()}, nil
}

// Signature returns the canonical signature the selector is derived from.
func (m Method) Signature() string {
	names := make([]string, len(m.Inputs))
	for i, t := range m.Inputs {
		names[i] = t.String()
	}
	return m.Name + "(" + strings.Join(names, ",") + ")"
}

// Selector returns the selector of m.
func (m Method) Selector() Selector {
	return SelectorOf(m.Signature())
}

// Pack encodes a call to m: the selector followed by the encoded arguments.
func (m Method) Pack(values ...abi.Value) ([]byte, error) {
	args, err := abi.Encode(m.Inputs, values)
	if err != nil {
		return nil, fmt.Errorf("cannot pack arguments of %s: %w", m.Name, err)
	}
	return MakeCallData(m.Selector(), args), nil
}

// UnpackInputs decodes the arguments of call data produced by Pack. The
// selector must be the selector of m.
func (m Method) UnpackInputs(data []byte) ([]abi.Value, error) {
	selector, args, err := SplitCallData(data)
	if err != nil {
		return nil, err
	}
	if expected := m.Selector(); selector != expected {
		return nil, fmt.Errorf("cannot unpack %s: %w: got %s, expected %s", m.Name, ErrSelectorMismatch, selector, expected)
	}
	values, err := abi.Decode(args, m.Inputs)
	if err != nil {
		return nil, fmt.Errorf("cannot unpack arguments of %s: %w", m.Name, err)
	}
	return values, nil
}

// PackOutputs encodes the return values of m.
func (m Method) PackOutputs(values ...abi.Value) ([]byte, error) {
	data, err := abi.Encode(m.Outputs, values)
	if err != nil {
		return nil, fmt.Errorf("cannot pack return values of %s: %w", m.Name, err)
	}
	return data, nil
}

// UnpackOutputs decodes the return data of a call to m. Return data carries
// no selector.
func (m Method) UnpackOutputs(data []byte) ([]abi.Value, error) {
	values, err := abi.Decode(data, m.Outputs)
	if err != nil {
		return nil, fmt.Errorf("cannot unpack return values of %s: %w", m.Name, err)
	}
	return values, nil
}

// MakeCallData concatenates a selector and encoded arguments.
func MakeCallData(selector Selector, args []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(SelectorSize + len(args))
	buf.Write(selector[:])
	buf.Write(args)
	return buf.Bytes()
}

// SplitCallData is the inverse of MakeCallData.
func SplitCallData(data []byte) (Selector, []byte, error) {
	var selector Selector
	if len(data) < SelectorSize {
		return selector, nil,
			fmt.Errorf("SplitCallData() cannot extract selector as call data (0x%x) too short (length=%d)", data, len(data))
	}
	copy(selector[:], data[:SelectorSize])
	return selector, data[SelectorSize:], nil
}
