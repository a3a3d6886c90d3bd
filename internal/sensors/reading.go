package sensors

import "fmt"

// ReadingKind tags the active alternative of a Reading.
type ReadingKind int

const (
	ReadingNone ReadingKind = iota
	ReadingInt
	ReadingFloat
	ReadingString
	ReadingBool
)

// Reading is the tagged union produced by every sensor. Consumers dispatch
// on Kind; accessing the wrong alternative yields the zero value.
type Reading struct {
	kind ReadingKind
	i    int32
	f    float64
	s    string
	b    bool
}

func NoneReading() Reading          { return Reading{kind: ReadingNone} }
func IntReading(v int32) Reading    { return Reading{kind: ReadingInt, i: v} }
func FloatReading(v float64) Reading { return Reading{kind: ReadingFloat, f: v} }
func StringReading(v string) Reading { return Reading{kind: ReadingString, s: v} }
func BoolReading(v bool) Reading    { return Reading{kind: ReadingBool, b: v} }

func (r Reading) Kind() ReadingKind { return r.kind }

func (r Reading) Int() int32      { return r.i }
func (r Reading) Float() float64  { return r.f }
func (r Reading) Str() string     { return r.s }
func (r Reading) Bool() bool      { return r.b }

// AsInt coerces any numeric alternative to int32; None and non-numeric
// alternatives yield zero.
func (r Reading) AsInt() int32 {
	switch r.kind {
	case ReadingInt:
		return r.i
	case ReadingFloat:
		return int32(r.f)
	case ReadingBool:
		if r.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (r Reading) String() string {
	switch r.kind {
	case ReadingInt:
		return fmt.Sprintf("%d", r.i)
	case ReadingFloat:
		return fmt.Sprintf("%.2f", r.f)
	case ReadingString:
		return r.s
	case ReadingBool:
		return fmt.Sprintf("%t", r.b)
	default:
		return ""
	}
}

// Equal reports whether two readings carry the same tag and value.
func (r Reading) Equal(other Reading) bool {
	return r == other
}
