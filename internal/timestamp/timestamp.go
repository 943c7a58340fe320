// Package timestamp formats the current time in a fixed civil timezone.
package timestamp

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Tokyo must resolve on hosts without a zoneinfo database.
)

// Defaults match the documentation workflow this formatter serves.
const (
	DefaultTimezone  = "Asia/Tokyo"
	DefaultZoneLabel = "JST"
	DefaultPrefix    = "Last updated:"
)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	dateTimeLayout = dateLayout + " " + timeLayout
	isoLayout      = "2006-01-02T15:04:05-07:00"
	isoMicroLayout = "2006-01-02T15:04:05.000000-07:00"
)

// ErrUnknownSelector is returned by ParseSelector for unsupported names.
var ErrUnknownSelector = errors.New("unknown timestamp format")

// Selector names one of the supported formats.
type Selector string

const (
	SelectorFormatted Selector = "formatted"
	SelectorCurrent   Selector = "current"
	SelectorISO       Selector = "iso"
	SelectorDate      Selector = "date"
	SelectorTime      Selector = "time"
)

// Selectors lists every selector in display order.
func Selectors() []Selector {
	return []Selector{SelectorFormatted, SelectorCurrent, SelectorISO, SelectorDate, SelectorTime}
}

// Usage is the one-line selector summary printed on a bad selector.
func Usage(program string) string {
	names := make([]string, 0, 5)
	for _, s := range Selectors() {
		names = append(names, string(s))
	}
	return fmt.Sprintf("usage: %s [%s]", program, strings.Join(names, "|"))
}

// ParseSelector resolves name. An empty name selects the formatted timestamp.
func ParseSelector(name string) (Selector, error) {
	if name == "" {
		return SelectorFormatted, nil
	}
	for _, s := range Selectors() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSelector, name)
}

// Options configures a Clock.
type Options struct {
	Timezone  string
	ZoneLabel string
	Prefix    string
}

// Clock renders the current time in a fixed location.
type Clock struct {
	loc    *time.Location
	label  string
	prefix string
	now    func() time.Time
}

// New returns a clock for opts. Empty fields take the package defaults.
func New(opts Options) (*Clock, error) {
	if opts.Timezone == "" {
		opts.Timezone = DefaultTimezone
	}
	if opts.ZoneLabel == "" {
		opts.ZoneLabel = DefaultZoneLabel
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", opts.Timezone, err)
	}
	return &Clock{loc: loc, label: opts.ZoneLabel, prefix: opts.Prefix, now: time.Now}, nil
}

// Default returns a clock for Asia/Tokyo.
func Default() *Clock {
	c, err := New(Options{})
	if err != nil {
		// tzdata is embedded; fall back to the fixed offset regardless.
		return &Clock{loc: time.FixedZone(DefaultZoneLabel, 9*60*60), label: DefaultZoneLabel, prefix: DefaultPrefix, now: time.Now}
	}
	return c
}

// WithNow returns a copy of c reading the time from now.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	cp := *c
	cp.now = now
	return &cp
}

// Location returns the clock's location.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the clock's location.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// CurrentTime returns "YYYY-MM-DD HH:MM:SS".
func (c *Clock) CurrentTime() string {
	return c.Now().Format(dateTimeLayout)
}

// FormattedTimestamp returns "<prefix> YYYY-MM-DD HH:MM:SS <label>" for documents.
func (c *Clock) FormattedTimestamp() string {
	return fmt.Sprintf("%s %s %s", c.prefix, c.CurrentTime(), c.label)
}

// ISOTimestamp returns ISO 8601 with the numeric offset. Microseconds are
// included only when non-zero.
func (c *Clock) ISOTimestamp() string {
	now := c.Now()
	if now.Nanosecond()/int(time.Microsecond) == 0 {
		return now.Format(isoLayout)
	}
	return now.Format(isoMicroLayout)
}

// DateOnly returns "YYYY-MM-DD".
func (c *Clock) DateOnly() string {
	return c.Now().Format(dateLayout)
}

// TimeOnly returns "HH:MM:SS".
func (c *Clock) TimeOnly() string {
	return c.Now().Format(timeLayout)
}

// Format renders the selected format.
func (c *Clock) Format(s Selector) (string, error) {
	switch s {
	case SelectorFormatted, "":
		return c.FormattedTimestamp(), nil
	case SelectorCurrent:
		return c.CurrentTime(), nil
	case SelectorISO:
		return c.ISOTimestamp(), nil
	case SelectorDate:
		return c.DateOnly(), nil
	case SelectorTime:
		return c.TimeOnly(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSelector, s)
	}
}
