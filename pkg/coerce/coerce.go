// Package coerce turns loosely-typed decoded-JSON objects into usable Go
// values. Backend payloads in this system do not commit to a single field
// naming convention, so every accessor takes a prioritized alias list and
// returns the first defined value, coerced with the same permissive rules the
// web client applied (numeric strings parse, unparseable numbers become zero,
// dates accept several layouts plus epoch milliseconds).
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Lookup returns the first non-nil value among the alias keys.
func Lookup(m map[string]any, keys ...string) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first defined alias coerced to a string, or "".
func String(m map[string]any, keys ...string) string {
	v, ok := Lookup(m, keys...)
	if !ok {
		return ""
	}
	return ToString(v)
}

// StringOr is String with an explicit fallback for absent values.
func StringOr(m map[string]any, def string, keys ...string) string {
	if v, ok := Lookup(m, keys...); ok {
		return ToString(v)
	}
	return def
}

// Float returns the first defined alias coerced to a float64. Absent or
// unparseable values yield zero.
func Float(m map[string]any, keys ...string) float64 {
	return FloatOr(m, 0, keys...)
}

// FloatOr is Float with an explicit fallback for absent values. Present but
// unparseable values still coerce to zero, mirroring Number(x) || 0.
func FloatOr(m map[string]any, def float64, keys ...string) float64 {
	v, ok := Lookup(m, keys...)
	if !ok {
		return def
	}
	return ToFloat(v)
}

// IntOr returns the first defined alias as an int, or def when absent.
func IntOr(m map[string]any, def int, keys ...string) int {
	v, ok := Lookup(m, keys...)
	if !ok {
		return def
	}
	return int(ToFloat(v))
}

// Time returns the first alias that parses as a timestamp.
func Time(m map[string]any, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		v, ok := Lookup(m, k)
		if !ok {
			continue
		}
		if t, ok := ToTime(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimePtr is Time for optional fields; unparseable or absent values stay nil.
func TimePtr(m map[string]any, keys ...string) *time.Time {
	if t, ok := Time(m, keys...); ok {
		return &t
	}
	return nil
}

// Enum lowercases the first defined alias and returns it when it is a member
// of allowed; anything else, including absence, degrades to def. Records are
// never rejected for carrying an unrecognized enum value.
func Enum(m map[string]any, allowed []string, def string, keys ...string) string {
	v, ok := Lookup(m, keys...)
	if !ok {
		return def
	}
	s := strings.ToLower(strings.TrimSpace(ToString(v)))
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	return def
}

// ToString coerces a decoded-JSON scalar to its string form. Integral floats
// print without a trailing ".0" so numeric ids survive round-trips.
func ToString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// ToFloat coerces a decoded-JSON scalar to a float64. NaN and parse failures
// become zero.
func ToFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToTime parses a timestamp from a string in one of the accepted layouts or
// from a number of milliseconds since the Unix epoch.
func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case float64:
		if t == 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		if t == 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(t).UTC(), true
	case time.Time:
		return t, !t.IsZero()
	default:
		return time.Time{}, false
	}
}

// secondsPerYear uses the 365.25-day year the original age computation fixed.
const secondsPerYear = 31557600

// AgeAt returns whole years elapsed between dob and now, never negative.
func AgeAt(dob, now time.Time) int {
	secs := now.Unix() - dob.Unix()
	if secs < 0 {
		return 0
	}
	return int(secs / secondsPerYear)
}
