package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// inlineCap is the number of numeric slots an AttrValue stores without a
// heap allocation. Short tuples (2D/3D/4D geometry, colors, small id lists)
// fit inline; longer sequences move to a slice.
const inlineCap = 4

// repr selects which storage an AttrValue is currently using.
// The zero repr is reprSmallInts so the zero AttrValue is an empty integer value.
type repr uint8

const (
	reprSmallInts repr = iota
	reprSmallFloats
	reprInts
	reprFloats
	reprText
)

// AttrValue holds one attribute value: a short inline numeric sequence, a
// growable numeric sequence, or a text string.
//
// Integer and float sequences have two storage strategies. Up to four
// elements live in a fixed inline buffer next to a logical length; the
// first append past that capacity copies the populated slots into a slice
// and the value stays slice-backed from then on. The split is invisible
// through the API: IsInts reports true for both forms, and Size and the
// element accessors behave identically.
//
// The zero AttrValue is an empty integer sequence. An empty numeric value
// adopts the kind of the first element appended to it.
type AttrValue struct {
	repr   repr
	n      uint8             // logical length of the inline buffer
	inline [inlineCap]uint64 // int64 or float64 bits, depending on repr
	ints   []int64
	floats []float64
	text   string
}

// Int returns an integer value holding v.
func Int(v int64) AttrValue {
	a := AttrValue{repr: reprSmallInts, n: 1}
	a.inline[0] = uint64(v)
	return a
}

// Float returns a float value holding v.
func Float(v float64) AttrValue {
	a := AttrValue{repr: reprSmallFloats, n: 1}
	a.inline[0] = math.Float64bits(v)
	return a
}

// Text returns a text value.
func Text(s string) AttrValue {
	return AttrValue{repr: reprText, text: s}
}

// Ints returns an integer sequence. Sequences of up to four elements are
// stored inline.
func Ints(vs ...int64) AttrValue {
	if len(vs) > inlineCap {
		return AttrValue{repr: reprInts, ints: append([]int64(nil), vs...)}
	}
	a := AttrValue{repr: reprSmallInts, n: uint8(len(vs))}
	for i, v := range vs {
		a.inline[i] = uint64(v)
	}
	return a
}

// Floats returns a float sequence. Sequences of up to four elements are
// stored inline.
func Floats(vs ...float64) AttrValue {
	if len(vs) > inlineCap {
		return AttrValue{repr: reprFloats, floats: append([]float64(nil), vs...)}
	}
	a := AttrValue{repr: reprSmallFloats, n: uint8(len(vs))}
	for i, v := range vs {
		a.inline[i] = math.Float64bits(v)
	}
	return a
}

// Size returns the number of elements, or the byte length for text.
func (a *AttrValue) Size() int {
	switch a.repr {
	case reprInts:
		return len(a.ints)
	case reprFloats:
		return len(a.floats)
	case reprText:
		return len(a.text)
	default:
		return int(a.n)
	}
}

// IsString reports whether a holds text.
func (a *AttrValue) IsString() bool { return a.repr == reprText }

// IsInts reports whether a holds an integer sequence.
func (a *AttrValue) IsInts() bool { return a.repr == reprSmallInts || a.repr == reprInts }

// IsFloats reports whether a holds a float sequence.
func (a *AttrValue) IsFloats() bool { return a.repr == reprSmallFloats || a.repr == reprFloats }

// inlined reports whether a numeric value still uses the inline buffer.
func (a *AttrValue) inlined() bool {
	return a.repr == reprSmallInts || a.repr == reprSmallFloats
}

// Str returns the text content.
// Returns ErrTypeMismatch if a is numeric.
func (a *AttrValue) Str() (string, error) {
	if a.repr != reprText {
		return "", fmt.Errorf("%w: %s value has no text", ErrTypeMismatch, a.kind())
	}
	return a.text, nil
}

// IntAt returns the integer at index i.
// Returns ErrTypeMismatch if a is not an integer sequence and ErrOutOfRange
// if i is outside [0, Size()).
func (a *AttrValue) IntAt(i int) (int64, error) {
	if !a.IsInts() {
		return 0, fmt.Errorf("%w: integer access on %s value", ErrTypeMismatch, a.kind())
	}
	if err := a.checkIndex(i); err != nil {
		return 0, err
	}
	if a.repr == reprInts {
		return a.ints[i], nil
	}
	return int64(a.inline[i]), nil
}

// UintAt returns the integer at index i reinterpreted as unsigned.
func (a *AttrValue) UintAt(i int) (uint64, error) {
	v, err := a.IntAt(i)
	return uint64(v), err
}

// FloatAt returns the float at index i.
// Returns ErrTypeMismatch if a is not a float sequence and ErrOutOfRange if
// i is outside [0, Size()).
func (a *AttrValue) FloatAt(i int) (float64, error) {
	if !a.IsFloats() {
		return 0, fmt.Errorf("%w: float access on %s value", ErrTypeMismatch, a.kind())
	}
	if err := a.checkIndex(i); err != nil {
		return 0, err
	}
	if a.repr == reprFloats {
		return a.floats[i], nil
	}
	return math.Float64frombits(a.inline[i]), nil
}

// SetIntAt overwrites the integer at index i.
func (a *AttrValue) SetIntAt(i int, v int64) error {
	if !a.IsInts() {
		return fmt.Errorf("%w: integer access on %s value", ErrTypeMismatch, a.kind())
	}
	if err := a.checkIndex(i); err != nil {
		return err
	}
	if a.repr == reprInts {
		a.ints[i] = v
	} else {
		a.inline[i] = uint64(v)
	}
	return nil
}

// SetFloatAt overwrites the float at index i.
func (a *AttrValue) SetFloatAt(i int, v float64) error {
	if !a.IsFloats() {
		return fmt.Errorf("%w: float access on %s value", ErrTypeMismatch, a.kind())
	}
	if err := a.checkIndex(i); err != nil {
		return err
	}
	if a.repr == reprFloats {
		a.floats[i] = v
	} else {
		a.inline[i] = math.Float64bits(v)
	}
	return nil
}

func (a *AttrValue) checkIndex(i int) error {
	if n := a.Size(); i < 0 || i >= n {
		return fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, i, n)
	}
	return nil
}

// AppendInt appends v to an integer sequence. A full inline value is
// promoted to slice storage first; the promotion is never undone.
// Returns ErrTypeMismatch on text or on a non-empty float sequence.
func (a *AttrValue) AppendInt(v int64) error {
	switch {
	case a.repr == reprText:
		return fmt.Errorf("%w: append integer to text value", ErrTypeMismatch)
	case a.IsFloats() && a.Size() > 0:
		return fmt.Errorf("%w: append integer to float value", ErrTypeMismatch)
	case a.repr == reprSmallFloats:
		a.repr = reprSmallInts
	case a.repr == reprFloats:
		a.repr, a.floats = reprInts, nil
	}

	switch {
	case a.repr == reprInts:
		a.ints = append(a.ints, v)
	case a.n < inlineCap:
		a.inline[a.n] = uint64(v)
		a.n++
	default:
		ints := make([]int64, a.n, a.n+1)
		for i := range ints {
			ints[i] = int64(a.inline[i])
		}
		a.repr, a.n, a.ints = reprInts, 0, append(ints, v)
	}
	return nil
}

// AppendFloat appends v to a float sequence. A full inline value is
// promoted to slice storage first; the promotion is never undone.
// Returns ErrTypeMismatch on text or on a non-empty integer sequence.
func (a *AttrValue) AppendFloat(v float64) error {
	switch {
	case a.repr == reprText:
		return fmt.Errorf("%w: append float to text value", ErrTypeMismatch)
	case a.IsInts() && a.Size() > 0:
		return fmt.Errorf("%w: append float to integer value", ErrTypeMismatch)
	case a.repr == reprSmallInts:
		a.repr = reprSmallFloats
	case a.repr == reprInts:
		a.repr, a.ints = reprFloats, nil
	}

	switch {
	case a.repr == reprFloats:
		a.floats = append(a.floats, v)
	case a.n < inlineCap:
		a.inline[a.n] = math.Float64bits(v)
		a.n++
	default:
		floats := make([]float64, a.n, a.n+1)
		for i := range floats {
			floats[i] = math.Float64frombits(a.inline[i])
		}
		a.repr, a.n, a.floats = reprFloats, 0, append(floats, v)
	}
	return nil
}

// PopLast removes the last element of a numeric value. It reports false,
// and leaves a untouched, when a is text or already empty.
func (a *AttrValue) PopLast() bool {
	switch a.repr {
	case reprText:
		return false
	case reprInts:
		if len(a.ints) == 0 {
			return false
		}
		a.ints = a.ints[:len(a.ints)-1]
	case reprFloats:
		if len(a.floats) == 0 {
			return false
		}
		a.floats = a.floats[:len(a.floats)-1]
	default:
		if a.n == 0 {
			return false
		}
		a.n--
	}
	return true
}

// IntSlice returns a copy of the integers, or nil if a is not an integer sequence.
func (a *AttrValue) IntSlice() []int64 {
	if !a.IsInts() {
		return nil
	}
	if a.repr == reprInts {
		return append([]int64(nil), a.ints...)
	}
	out := make([]int64, a.n)
	for i := range out {
		out[i] = int64(a.inline[i])
	}
	return out
}

// FloatSlice returns a copy of the floats, or nil if a is not a float sequence.
func (a *AttrValue) FloatSlice() []float64 {
	if !a.IsFloats() {
		return nil
	}
	if a.repr == reprFloats {
		return append([]float64(nil), a.floats...)
	}
	out := make([]float64, a.n)
	for i := range out {
		out[i] = math.Float64frombits(a.inline[i])
	}
	return out
}

// Clone returns a deep copy of a.
func (a AttrValue) Clone() AttrValue {
	c := a
	if a.ints != nil {
		c.ints = append([]int64(nil), a.ints...)
	}
	if a.floats != nil {
		c.floats = append([]float64(nil), a.floats...)
	}
	return c
}

// Equal reports whether a and b hold the same kind and the same elements.
// Inline and slice storage compare equal when their contents match. Floats
// compare numerically except that NaN equals NaN, so a value always equals
// its own clone.
func (a *AttrValue) Equal(b *AttrValue) bool {
	switch {
	case a.IsString() || b.IsString():
		return a.IsString() && b.IsString() && a.text == b.text
	case a.Size() != b.Size():
		return false
	case a.Size() == 0:
		return true
	case a.IsInts() != b.IsInts():
		return false
	}
	for i := 0; i < a.Size(); i++ {
		if a.IsInts() {
			x, _ := a.IntAt(i)
			y, _ := b.IntAt(i)
			if x != y {
				return false
			}
			continue
		}
		x, _ := a.FloatAt(i)
		y, _ := b.FloatAt(i)
		if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
			return false
		}
	}
	return true
}

func (a *AttrValue) kind() string {
	switch {
	case a.IsString():
		return "text"
	case a.IsFloats():
		return "float"
	default:
		return "integer"
	}
}

// String renders a for humans: text verbatim, numbers as a bracketed list.
func (a AttrValue) String() string {
	if a.IsString() {
		return a.text
	}
	parts := make([]string, 0, a.Size())
	if a.IsInts() {
		for _, v := range a.IntSlice() {
			parts = append(parts, strconv.FormatInt(v, 10))
		}
	} else {
		for _, v := range a.FloatSlice() {
			parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// MarshalJSON encodes text as a JSON string and numbers as a JSON array.
// JSON has no literal for non-finite floats; they are written as the strings
// "NaN", "+Inf" and "-Inf".
func (a AttrValue) MarshalJSON() ([]byte, error) {
	switch {
	case a.IsString():
		return json.Marshal(a.text)
	case a.IsFloats():
		fs := a.FloatSlice()
		out := make([]jsonFloat, len(fs))
		for i, f := range fs {
			out[i] = jsonFloat(f)
		}
		return json.Marshal(out)
	default:
		ints := a.IntSlice()
		if ints == nil {
			ints = []int64{}
		}
		return json.Marshal(ints)
	}
}

// jsonFloat encodes finite values as JSON numbers and non-finite values as
// "NaN", "+Inf" or "-Inf".
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}
