package calldata

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/oasislabs/evm-abi/abi"
	"github.com/oasislabs/evm-abi/address"
)

// CallArg is a call argument written as "encoding:value", the way arguments
// are given on command lines and in config files.
type CallArg struct {
	Encoding string `json:"encoding"`
	Value    string `json:"value"`
}

// NewCallArg splits arg at its first colon into an encoding and a value.
// The encoding is only checked by Raw.
func NewCallArg(arg string) (CallArg, error) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		return CallArg{}, fmt.Errorf(
			"all arguments should be of the form 'encoding:value', got (%s)", arg)
	}
	return CallArg{Encoding: parts[0], Value: parts[1]}, nil
}

// Raw returns the bytes the argument denotes:
//
//	str, string                      the UTF-8 bytes of the value
//	int, integer                     a decimal uint256 as one 32-byte word
//	addr, address                    the 20 bytes of a hex address
//	hex                              hex digits, with or without 0x
//	b32, base32, byte base32         standard base32
//	b64, base64, byte base64         standard base64
//	abi                              "type:json", the ABI encoding of the JSON value
func (arg CallArg) Raw() ([]byte, error) {
	switch arg.Encoding {
	case "str", "string":
		return []byte(arg.Value), nil
	case "int", "integer":
		num, err := uint256.FromDecimal(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("could not parse uint256 from %s: %w", arg.Value, err)
		}
		word := num.Bytes32()
		return word[:], nil
	case "addr", "address":
		addr, err := address.FromString(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("could not parse address from %s: %w", arg.Value, err)
		}
		return addr[:], nil
	case "hex":
		data, err := hex.DecodeString(strings.TrimPrefix(arg.Value, "0x"))
		if err != nil {
			return nil, fmt.Errorf("could not decode hex %s: %w", arg.Value, err)
		}
		return data, nil
	case "b32", "base32", "byte base32":
		data, err := base32.StdEncoding.DecodeString(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("could not decode base32 %s: %w", arg.Value, err)
		}
		return data, nil
	case "b64", "base64", "byte base64":
		data, err := base64.StdEncoding.DecodeString(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("could not decode base64 %s: %w", arg.Value, err)
		}
		return data, nil
	case "abi":
		typeAndValue := strings.SplitN(arg.Value, ":", 2)
		if len(typeAndValue) != 2 {
			return nil, fmt.Errorf("abi argument should be of the form 'abi:type:json', got (%s)", arg.Value)
		}
		abiType, err := abi.TypeOf(typeAndValue[0])
		if err != nil {
			return nil, fmt.Errorf("could not parse abi type %s: %w", typeAndValue[0], err)
		}
		value, err := abiType.UnmarshalFromJSON([]byte(typeAndValue[1]))
		if err != nil {
			return nil, fmt.Errorf("could not parse abi value %s: %w", typeAndValue[1], err)
		}
		return abiType.Encode(value)
	default:
		return nil, fmt.Errorf("unknown encoding: %s", arg.Encoding)
	}
}
