package cross

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// coordScale is the number of Coordinate units per degree.
const coordScale = 100_000

// Coordinate is a latitude or longitude in fixed-point units of 1e-5
// degree.
type Coordinate int64

// ParseCoordinate parses a decimal degree string with at most five
// fractional digits, such as "55.75583" or "-0.1".
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.TrimSpace(s)
	body, neg := strings.CutPrefix(s, "-")
	if !neg {
		body = strings.TrimPrefix(body, "+")
	}
	whole, frac, _ := strings.Cut(body, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	if len(frac) > 5 {
		return 0, fmt.Errorf("invalid coordinate %q: more than 5 decimal places", s)
	}
	if whole == "" {
		whole = "0"
	}
	deg, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	var fracUnits uint64
	if frac != "" {
		fracUnits, err = strconv.ParseUint(frac+strings.Repeat("0", 5-len(frac)), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
	}
	c := Coordinate(deg*coordScale + fracUnits)
	if c > 180*coordScale {
		return 0, fmt.Errorf("invalid coordinate %q: out of range", s)
	}
	if neg {
		c = -c
	}
	return c, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Coordinate) UnmarshalText(text []byte) error {
	v, err := ParseCoordinate(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Decimal renders c as a decimal degree string with five places.
func (c Coordinate) Decimal() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%05d", sign, v/coordScale, v%coordScale)
}

// DMS renders c as whole degrees, minutes and seconds, e.g. 55°45'20".
// Minutes and seconds are truncated, not rounded.
func (c Coordinate) DMS() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign, v = "-", -v
	}
	deg := v / coordScale
	rem := (v % coordScale) * 60
	minutes := rem / coordScale
	seconds := (rem % coordScale) * 60 / coordScale
	return fmt.Sprintf("%s%d°%d'%d\"", sign, deg, minutes, seconds)
}

// FormatPenalty renders d as HH:MM:SS, prefixed with the day count when
// longer than a day and suffixed with microseconds when not whole.
func FormatPenalty(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign, d = "-", -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	us := d / time.Microsecond

	var b strings.Builder
	b.WriteString(sign)
	if days > 0 {
		fmt.Fprintf(&b, "%d ", days)
	}
	fmt.Fprintf(&b, "%02d:%02d:%02d", h, m, s)
	if us > 0 {
		fmt.Fprintf(&b, ".%06d", us)
	}
	return b.String()
}
