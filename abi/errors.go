package abi

import (
	"errors"
	"fmt"
	"strings"
)

// Op names the codec operation an error was raised from.
type Op string

const (
	// OpType is type construction, validation and parsing.
	OpType Op = "type"
	// OpEncode is Encode and the JSON marshalling of values.
	OpEncode Op = "encode"
	// OpDecode is Decode and the JSON unmarshalling of values.
	OpDecode Op = "decode"
)

// ErrorKind categorizes codec failures.
type ErrorKind int

const (
	// KindUnsupportedType is a malformed or out of range type.
	KindUnsupportedType ErrorKind = iota + 1
	// KindTypeMismatch is a value whose shape does not fit its type, or a
	// non-canonical word on decode.
	KindTypeMismatch
	// KindIntegerOverflow is an integer outside the range of its type.
	KindIntegerOverflow
	// KindBufferTooShort is input that ends before a word or head it must hold.
	KindBufferTooShort
	// KindOffsetOutOfBounds is an offset or length pointing past the input.
	KindOffsetOutOfBounds
	// KindInvalidUTF8 is a string that is not valid UTF-8.
	KindInvalidUTF8
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedType:
		return "unsupported type"
	case KindTypeMismatch:
		return "type mismatch"
	case KindIntegerOverflow:
		return "integer overflow"
	case KindBufferTooShort:
		return "buffer too short"
	case KindOffsetOutOfBounds:
		return "offset out of bounds"
	case KindInvalidUTF8:
		return "invalid utf-8"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrUnsupportedType   = &Error{Kind: KindUnsupportedType}
	ErrTypeMismatch      = &Error{Kind: KindTypeMismatch}
	ErrIntegerOverflow   = &Error{Kind: KindIntegerOverflow}
	ErrBufferTooShort    = &Error{Kind: KindBufferTooShort}
	ErrOffsetOutOfBounds = &Error{Kind: KindOffsetOutOfBounds}
	ErrInvalidUTF8       = &Error{Kind: KindInvalidUTF8}
)

// Error is returned by every failing type construction, encode and decode
// call. Path holds the element indices leading from the top-level value to
// the offending one.
type Error struct {
	Op     Op
	Kind   ErrorKind
	Path   []int
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("abi: ")
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteByte(' ')
	}
	b.WriteString(e.Kind.String())
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(formatPath(e.Path))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. Sentinels have
// no Op, so only the kind is compared.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func formatPath(path []int) string {
	var b strings.Builder
	for _, i := range path {
		fmt.Fprintf(&b, "[%d]", i)
	}
	return b.String()
}

func newError(op Op, kind ErrorKind, path []int, format string, args ...interface{}) *Error {
	return &Error{
		Op:     op,
		Kind:   kind,
		Path:   append([]int(nil), path...),
		Detail: fmt.Sprintf(format, args...),
	}
}

// withPath prefixes the path of a nested *Error with the enclosing indices.
func withPath(err error, prefix []int) error {
	var e *Error
	if len(prefix) == 0 || !errors.As(err, &e) {
		return err
	}
	e.Path = append(append([]int(nil), prefix...), e.Path...)
	return e
}
