package bind

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/oasislabs/evm-abi/abi"
)

// ErrTrailingData is returned by a strict Codec when the input holds bytes
// past the encoded values.
var ErrTrailingData = errors.New("trailing data after encoded values")

// Codec encodes and decodes Go values through a TypeResolver, a
// ValueVisitor and a ValueBuilder. The zero value is not usable; call
// NewCodec.
type Codec struct {
	resolver TypeResolver
	visitor  ValueVisitor
	builder  ValueBuilder
	strict   bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithStrict makes Unmarshal reject input with bytes past the furthest byte
// the decoded values occupy.
func WithStrict(strict bool) Option {
	return func(c *Codec) {
		c.strict = strict
	}
}

// WithResolver replaces the resolver naming the ABI type of Go types.
func WithResolver(resolver TypeResolver) Option {
	return func(c *Codec) {
		c.resolver = resolver
	}
}

// WithVisitor replaces the visitor converting Go values into value trees.
func WithVisitor(visitor ValueVisitor) Option {
	return func(c *Codec) {
		c.visitor = visitor
	}
}

// WithBuilder replaces the builder storing value trees into Go values.
func WithBuilder(builder ValueBuilder) Option {
	return func(c *Codec) {
		c.builder = builder
	}
}

// NewCodec returns a Codec backed by a fresh Binder unless options replace
// its parts.
func NewCodec(opts ...Option) *Codec {
	binder := NewBinder()
	c := &Codec{resolver: binder, visitor: binder, builder: binder}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Marshal encodes the tagged fields of struct v, or of the struct v points
// to, as a list of function arguments.
func (c *Codec) Marshal(v interface{}) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("cannot marshal nil")
	}
	t, err := c.resolver.ResolveType(rv.Type())
	if err != nil {
		return nil, err
	}
	value, err := c.visitor.VisitValue(rv, t)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal Go %s: %w", rv.Type(), err)
	}
	return abi.Encode(t.Components(), value.Elems())
}

// MarshalAs encodes v as a single value of type t.
func (c *Codec) MarshalAs(t abi.Type, v interface{}) ([]byte, error) {
	value, err := c.visitor.VisitValue(reflect.ValueOf(v), t)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %T as %s: %w", v, t, err)
	}
	return t.Encode(value)
}

// Unmarshal decodes a list of function arguments into the tagged fields of
// the struct out points to.
func (c *Codec) Unmarshal(data []byte, out interface{}) error {
	rv, err := target(out)
	if err != nil {
		return err
	}
	t, err := c.resolver.ResolveType(rv.Type())
	if err != nil {
		return err
	}
	values, end, err := abi.DecodePrefix(data, t.Components())
	if err != nil {
		return err
	}
	if err := c.checkConsumed(data, end); err != nil {
		return err
	}
	if err := c.builder.BuildValue(rv, abi.NewSequence(values...), t); err != nil {
		return fmt.Errorf("cannot unmarshal into Go %s: %w", rv.Type(), err)
	}
	return nil
}

// UnmarshalAs decodes a single value of type t into the value out points to.
func (c *Codec) UnmarshalAs(t abi.Type, data []byte, out interface{}) error {
	rv, err := target(out)
	if err != nil {
		return err
	}
	value, end, err := t.DecodePrefix(data)
	if err != nil {
		return err
	}
	if err := c.checkConsumed(data, end); err != nil {
		return err
	}
	if err := c.builder.BuildValue(rv, value, t); err != nil {
		return fmt.Errorf("cannot unmarshal %s into Go %s: %w", t, rv.Type(), err)
	}
	return nil
}

func (c *Codec) checkConsumed(data []byte, end int) error {
	if c.strict && end != len(data) {
		return fmt.Errorf("%w: %d of %d bytes consumed", ErrTrailingData, end, len(data))
	}
	return nil
}

func target(out interface{}) (reflect.Value, error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("cannot unmarshal into non-pointer %T", out)
	}
	return rv.Elem(), nil
}
