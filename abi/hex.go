package abi

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// EncodeHex is Encode followed by a plain hex rendering of the result: two
// lowercase digits per byte and no 0x prefix.
func EncodeHex(types []Type, values []Value) (string, error) {
	enc, err := Encode(types, values)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(enc), nil
}

// WriteHex is EncodeHex writing its rendering to w. Nothing is written when
// encoding fails.
func WriteHex(w io.Writer, types []Type, values []Value) error {
	enc, err := Encode(types, values)
	if err != nil {
		return err
	}
	if _, err := hex.NewEncoder(w).Write(enc); err != nil {
		return fmt.Errorf("abi: cannot write hex output: %w", err)
	}
	return nil
}

// DecodeHex parses the hex rendering produced by EncodeHex, with or without
// a 0x prefix, and decodes it with Decode.
func DecodeHex(s string, types []Type) ([]Value, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("abi: cannot decode hex input: %w", err)
	}
	return Decode(data, types)
}

// ReadHex is DecodeHex reading the rendering from r until EOF. Surrounding
// whitespace is ignored.
func ReadHex(r io.Reader, types []Type) ([]Value, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("abi: cannot read hex input: %w", err)
	}
	return DecodeHex(strings.TrimSpace(string(text)), types)
}
