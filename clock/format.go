package clock

import "strings"

// Format is the unit a query or seek is expressed in.
type Format int

const (
	FormatUndefined Format = iota
	FormatDefault
	FormatBytes
	FormatTime
	FormatBuffers
	FormatPercent
)

func (f Format) String() string {
	switch f {
	case FormatDefault:
		return "default"
	case FormatBytes:
		return "bytes"
	case FormatTime:
		return "time"
	case FormatBuffers:
		return "buffers"
	case FormatPercent:
		return "percent"
	default:
		return "undefined"
	}
}

// SeekFlags modify how a seek is performed.
type SeekFlags uint

const (
	SeekFlagNone SeekFlags = 0
	// SeekFlagFlush discards data buffered in the pipeline before seeking.
	SeekFlagFlush SeekFlags = 1 << 0
	// SeekFlagAccurate lands exactly on the target, possibly slowly.
	SeekFlagAccurate SeekFlags = 1 << 1
	// SeekFlagKeyUnit lands on the closest key frame at or before the target.
	SeekFlagKeyUnit SeekFlags = 1 << 2
	SeekFlagSegment SeekFlags = 1 << 3
)

// Has reports whether all bits of flag are set.
func (f SeekFlags) Has(flag SeekFlags) bool { return f&flag == flag }

func (f SeekFlags) String() string {
	if f == SeekFlagNone {
		return "none"
	}
	var parts []string
	if f.Has(SeekFlagFlush) {
		parts = append(parts, "flush")
	}
	if f.Has(SeekFlagAccurate) {
		parts = append(parts, "accurate")
	}
	if f.Has(SeekFlagKeyUnit) {
		parts = append(parts, "key-unit")
	}
	if f.Has(SeekFlagSegment) {
		parts = append(parts, "segment")
	}
	return strings.Join(parts, "+")
}
