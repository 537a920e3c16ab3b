/*
Package evm_abi provides an implementation of the Ethereum contract ABI encoding.

See https://docs.soliditylang.org/en/latest/abi-spec.html for the corresponding specification.


Basic Operations

The abi package can parse ABI type names using the `abi.TypeOf()` function, or build the same
types with the `abi.Make*Type()` constructors.

That function returns an `abi.Type` struct. `abi.Encode` and `abi.Decode` convert between lists of
`abi.Value` trees and the head/tail encoded byte strings used for function arguments and return
values; the `abi.Type` struct's `Encode` and `Decode` methods do the same for a single value.


Related Packages

The address package converts 20 byte addresses to and from their EIP-55 checksummed form.

The calldata package derives function selectors and assembles and splits call data.

The bind package encodes and decodes Go structs whose fields carry `abi` tags.
*/
package evm_abi
