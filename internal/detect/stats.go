package detect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// StatKind enumerates the closed set of value kinds a Stat may carry, so
// renderers can serialize stats without reflection.
type StatKind uint8

// Stat value kinds.
const (
	StatInt StatKind = iota
	StatFloat
	StatRatio
	StatString
	StatStrings
)

// StatValue is a single semantically typed statistic value.
type StatValue struct {
	Kind    StatKind
	Int     int64
	Float   float64
	Str     string
	Strings []string
}

// MarshalJSON renders the value according to its kind. Ratios are rounded
// to three decimal places so repeated scans serialize identically.
func (v StatValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case StatInt:
		return json.Marshal(v.Int)
	case StatFloat:
		return json.Marshal(v.Float)
	case StatRatio:
		return json.Marshal(math.Round(v.Float*1000) / 1000)
	case StatString:
		return json.Marshal(v.Str)
	case StatStrings:
		if v.Strings == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Strings)
	}
	return nil, fmt.Errorf("unknown stat kind %d", v.Kind)
}

// Stat is one named statistic.
type Stat struct {
	Key   string
	Value StatValue
}

// Stats is an insertion-ordered collection of named statistics. The zero
// value is ready to use.
type Stats struct {
	entries []Stat
}

// NewStats creates an empty statistics collection.
func NewStats() *Stats {
	return &Stats{}
}

// AddInt appends an integer statistic.
func (s *Stats) AddInt(key string, v int) *Stats {
	s.entries = append(s.entries, Stat{key, StatValue{Kind: StatInt, Int: int64(v)}})
	return s
}

// AddFloat appends a float statistic.
func (s *Stats) AddFloat(key string, v float64) *Stats {
	s.entries = append(s.entries, Stat{key, StatValue{Kind: StatFloat, Float: v}})
	return s
}

// AddRatio appends a 0..1 ratio statistic.
func (s *Stats) AddRatio(key string, v float64) *Stats {
	s.entries = append(s.entries, Stat{key, StatValue{Kind: StatRatio, Float: v}})
	return s
}

// AddString appends a short string statistic.
func (s *Stats) AddString(key, v string) *Stats {
	s.entries = append(s.entries, Stat{key, StatValue{Kind: StatString, Str: v}})
	return s
}

// AddStrings appends a short list-of-strings statistic.
func (s *Stats) AddStrings(key string, v []string) *Stats {
	s.entries = append(s.entries, Stat{key, StatValue{Kind: StatStrings, Strings: v}})
	return s
}

// Len returns the number of statistics.
func (s *Stats) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Get returns the value for key and whether it exists.
func (s *Stats) Get(key string) (StatValue, bool) {
	if s == nil {
		return StatValue{}, false
	}
	for _, e := range s.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return StatValue{}, false
}

// Int returns the integer value for key, or 0.
func (s *Stats) Int(key string) int64 {
	if v, ok := s.Get(key); ok {
		return v.Int
	}
	return 0
}

// Float returns the float or ratio value for key, or 0.
func (s *Stats) Float(key string) float64 {
	if v, ok := s.Get(key); ok {
		return v.Float
	}
	return 0
}

// Str returns the string value for key, or "".
func (s *Stats) Str(key string) string {
	if v, ok := s.Get(key); ok {
		return v.Str
	}
	return ""
}

// StringsVal returns the string-list value for key, or nil.
func (s *Stats) StringsVal(key string) []string {
	if v, ok := s.Get(key); ok {
		return v.Strings
	}
	return nil
}

// Keys returns the statistic keys in insertion order.
func (s *Stats) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Key
	}
	return out
}

// MarshalJSON renders the stats as a JSON object preserving insertion order.
func (s *Stats) MarshalJSON() ([]byte, error) {
	if s == nil || len(s.entries) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
