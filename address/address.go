/*
Package address provides the ability to convert between 20 byte Ethereum addresses and their
EIP-55 checksummed hexadecimal string form.
*/
package address

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// BytesSize is the size of an Ethereum address in bytes. This is NOT the size of the hex string
// form of an address.
const BytesSize = 20

// Address is a 20 byte account or contract address.
type Address [BytesSize]byte

// Checksum computes the Keccak-256 hash of the lowercase hex form of the address. Bit 4*i of
// the hash decides the case of the i-th hex digit in the EIP-55 form.
func Checksum(addressBytes Address) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(hex.EncodeToString(addressBytes[:])))
	return hasher.Sum(nil)
}

// ToString converts a 20 byte address to its 0x-prefixed EIP-55 string
func ToString(addressBytes Address) string {
	digits := []byte(hex.EncodeToString(addressBytes[:]))
	checksum := Checksum(addressBytes)
	for i, c := range digits {
		if c < 'a' {
			continue
		}
		nibble := checksum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			digits[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(digits)
}

// FromString converts a hex string, with or without 0x prefix, to a 20 byte address. All-lower
// and all-upper case strings are accepted as is; mixed case strings must carry a valid EIP-55
// checksum.
func FromString(addressString string) (Address, error) {
	digits := addressString
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	}
	if len(digits) != 2*BytesSize {
		return Address{}, fmt.Errorf(
			"cannot cast encoded address string (%s) to address: hex digit count should equal %d",
			addressString, 2*BytesSize,
		)
	}
	decoded, err := hex.DecodeString(digits)
	if err != nil {
		return Address{},
			fmt.Errorf("cannot cast encoded address string (%s) to address: hex decode error: %w", addressString, err)
	}
	var addressBytes Address
	copy(addressBytes[:], decoded)

	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) {
		expected := ToString(addressBytes)
		if expected[2:] != digits {
			return Address{}, fmt.Errorf(
				"cannot cast encoded address string (%s) to address: checksum mismatch, expected %s",
				addressString, expected,
			)
		}
	}

	return addressBytes, nil
}

// String implements fmt.Stringer with the EIP-55 form.
func (a Address) String() string {
	return ToString(a)
}
