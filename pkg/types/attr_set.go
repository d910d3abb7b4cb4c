package types

import (
	"bytes"
	"encoding/json"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AttrSet maps attribute names to values. Every entity kind (Node,
// Hyperlink, Widget) embeds one. Setting an existing name replaces its
// value. Iteration order is not part of the contract.
//
// The zero AttrSet is empty and ready to use.
type AttrSet struct {
	m *orderedmap.OrderedMap[string, AttrValue]
}

// NewAttrSet returns an empty attribute set.
func NewAttrSet() AttrSet {
	return AttrSet{m: orderedmap.New[string, AttrValue]()}
}

// Set inserts or replaces the value stored under key.
func (s *AttrSet) Set(key string, value AttrValue) {
	if s.m == nil {
		s.m = orderedmap.New[string, AttrValue]()
	}
	s.m.Set(key, value)
}

// Get returns the value stored under key. The pointer aliases the stored
// value, so numeric edits through it (AppendInt, SetFloatAt, ...) are
// visible to later lookups. A missing key is not an error.
func (s *AttrSet) Get(key string) (*AttrValue, bool) {
	if s.m == nil {
		return nil, false
	}
	pair := s.m.GetPair(key)
	if pair == nil {
		return nil, false
	}
	return &pair.Value, true
}

// Contains reports whether key is present.
func (s *AttrSet) Contains(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (s *AttrSet) Delete(key string) bool {
	if s.m == nil {
		return false
	}
	_, present := s.m.Delete(key)
	return present
}

// Len returns the number of attributes.
func (s *AttrSet) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// All yields every (name, value) pair. Each call starts a fresh pass.
// The set must not be modified while a pass is in progress.
func (s *AttrSet) All() iter.Seq2[string, *AttrValue] {
	return func(yield func(string, *AttrValue) bool) {
		if s.m == nil {
			return
		}
		for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, &pair.Value) {
				return
			}
		}
	}
}

// Keys returns the attribute names.
func (s *AttrSet) Keys() []string {
	keys := make([]string, 0, s.Len())
	for k := range s.All() {
		keys = append(keys, k)
	}
	return keys
}

// Equal reports whether s and o hold the same names with equal values.
func (s *AttrSet) Equal(o *AttrSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for k, v := range s.All() {
		ov, ok := o.Get(k)
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of s.
func (s *AttrSet) Clone() AttrSet {
	c := NewAttrSet()
	for k, v := range s.All() {
		c.Set(k, v.Clone())
	}
	return c
}

// MarshalJSON encodes the set as a JSON object.
func (s AttrSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for k, v := range s.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
