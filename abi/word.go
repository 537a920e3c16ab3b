package abi

import (
	"github.com/holiman/uint256"
	"golang.org/x/exp/constraints"
)

// Word is one 32-byte big-endian ABI slot.
type Word [WordSize]byte

// roundUp rounds n up to a multiple of align, which must be a power of two.
func roundUp[T constraints.Integer](n, align T) T {
	return (n + (align - 1)) &^ (align - 1)
}

// paddedLen is the number of bytes n content bytes occupy once padded to
// whole words.
func paddedLen[T constraints.Integer](n T) T {
	return roundUp(n, WordSize)
}

// uintWord right-aligns n into a word.
func uintWord(n *uint256.Int) Word {
	return n.Bytes32()
}

// lengthWord encodes a length or offset as a uint256 word.
func lengthWord(n int) Word {
	return uint256.NewInt(uint64(n)).Bytes32()
}

// wordBuffer is an append-only sequence of words whose already written words
// can be patched in place, as needed for offset placeholders.
type wordBuffer struct {
	data []byte
}

func newWordBuffer(words int) *wordBuffer {
	return &wordBuffer{data: make([]byte, 0, words*WordSize)}
}

func (b *wordBuffer) len() int {
	return len(b.data)
}

func (b *wordBuffer) bytes() []byte {
	return b.data
}

func (b *wordBuffer) appendWord(w Word) {
	b.data = append(b.data, w[:]...)
}

// appendPadded writes p left aligned and zero padded to a word boundary. An
// empty p writes nothing.
func (b *wordBuffer) appendPadded(p []byte) {
	b.data = append(b.data, p...)
	for pad := paddedLen(len(p)) - len(p); pad > 0; pad-- {
		b.data = append(b.data, 0)
	}
}

// appendRaw writes an already word aligned encoding.
func (b *wordBuffer) appendRaw(p []byte) {
	b.data = append(b.data, p...)
}

// writeWordAt overwrites the word at byte offset off, which must have been
// written before.
func (b *wordBuffer) writeWordAt(off int, w Word) {
	copy(b.data[off:off+WordSize], w[:])
}

// decodeBudgetFloor is the decode budget granted on top of the input size,
// in bytes. It covers static arrays of empty tuples, which occupy no input.
const decodeBudgetFloor = 1 << 22

// decodeExpansion is how many times over the decoded values may cover the
// input, counting a word per value plus the content of bytes and strings.
const decodeExpansion = 4

// wordReader gives bounds checked word access to an encoded buffer.
type wordReader struct {
	data []byte
	// end is the furthest byte offset read so far.
	end int
	// budget is what is left of the decoded size allowed for data.
	budget int
}

func newWordReader(data []byte) *wordReader {
	return &wordReader{data: data, budget: decodeBudget(len(data))}
}

func decodeBudget(n int) int {
	return decodeExpansion*n + decodeBudgetFloor
}

// charge takes n bytes from the output allowance.
func (r *wordReader) charge(n int, path []int) error {
	if n > r.budget {
		return newError(OpDecode, KindOffsetOutOfBounds, path,
			"aliased offsets expand %d input bytes past %d decoded bytes", len(r.data), decodeBudget(len(r.data)))
	}
	r.budget -= n
	return nil
}

// readWordAt returns the word starting at byte offset off.
func (r *wordReader) readWordAt(off int, path []int) (Word, error) {
	var w Word
	if off < 0 || off > len(r.data)-WordSize {
		return w, newError(OpDecode, KindBufferTooShort, path,
			"need %d bytes at offset %d, buffer has %d", WordSize, off, len(r.data))
	}
	copy(w[:], r.data[off:off+WordSize])
	r.touch(off + WordSize)
	return w, nil
}

// slice returns n bytes starting at off.
func (r *wordReader) slice(off, n int, path []int) ([]byte, error) {
	if off < 0 || n < 0 || off > len(r.data) || n > len(r.data)-off {
		return nil, newError(OpDecode, KindOffsetOutOfBounds, path,
			"%d bytes at offset %d exceed buffer of %d bytes", n, off, len(r.data))
	}
	r.touch(off + n)
	return r.data[off : off+n], nil
}

func (r *wordReader) touch(end int) {
	if end > r.end {
		r.end = end
	}
}

// wordInt interprets w as a non-negative byte offset or length that must not
// exceed limit.
func wordInt(w Word, limit int) (int, bool) {
	if limit < 0 {
		return 0, false
	}
	var u uint256.Int
	u.SetBytes32(w[:])
	if !u.IsUint64() || u.Uint64() > uint64(limit) {
		return 0, false
	}
	return int(u.Uint64()), true
}
