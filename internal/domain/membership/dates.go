package membership

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrDateAbsent is returned by Dates.Parse for nil, empty or zero inputs.
	ErrDateAbsent = errors.New("date absent")
	// ErrDateUnparseable is returned by Dates.Parse when no supported format matches.
	ErrDateUnparseable = errors.New("date unparseable")
)

const (
	// epochMillisThreshold separates millisecond epochs from second epochs.
	epochMillisThreshold = 1e12
	// maxEpochMillis bounds accepted epochs to 100 million days either side
	// of 1970.
	maxEpochMillis = 8.64e15
)

var (
	epochPattern     = regexp.MustCompile(`^\d{10,}$`)
	dayMonthYear     = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})$`)
	dayMonthNameYear = regexp.MustCompile(`^(\d{1,2})[-/]([A-Za-z]{3,})[-/](\d{2}|\d{4})$`)
)

// Month-first numeric layouts (01/02/2006) are deliberately absent so that
// slash-separated numeric dates are always read day first.
var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	"Mon Jan 02 2006",
	"Mon, 02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Dates resolves heterogeneous date inputs into instants of a single location
// and answers calendar-day questions relative to its clock.
type Dates struct {
	now func() time.Time
	loc *time.Location
}

// NewDates builds a Dates. A nil clock means time.Now, a nil location means time.Local.
func NewDates(now func() time.Time, loc *time.Location) *Dates {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Dates{now: now, loc: loc}
}

func (d *Dates) Location() *time.Location { return d.loc }

// Now returns the current instant in the configured location.
func (d *Dates) Now() time.Time { return d.now().In(d.loc) }

// Today returns the start of the current calendar day.
func (d *Dates) Today() time.Time { return d.Day(d.now()) }

// Day strips the time of day from t as seen in the configured location.
func (d *Dates) Day(t time.Time) time.Time {
	t = t.In(d.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, d.loc)
}

// Normalize is the permissive form of Parse: anything absent or unparseable
// becomes the current instant.
func (d *Dates) Normalize(v any) time.Time {
	t, err := d.Parse(v)
	if err != nil {
		return d.Now()
	}
	return t
}

// Parse resolves v into an instant. It accepts time values, epoch numbers
// (seconds or milliseconds), numeric epoch strings of ten or more digits and
// calendar strings in ISO, RFC, D-M-YYYY, D/M/YYYY and D-Mon-YY[YY] forms.
func (d *Dates) Parse(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, ErrDateAbsent
	case time.Time:
		if x.IsZero() {
			return time.Time{}, ErrDateAbsent
		}
		return x.In(d.loc), nil
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, ErrDateAbsent
		}
		return x.In(d.loc), nil
	case string:
		return d.parseString(x)
	case json.Number:
		return d.parseString(x.String())
	case bool:
		if !x {
			return time.Time{}, ErrDateAbsent
		}
		return time.Time{}, ErrDateUnparseable
	case float64:
		return d.fromEpoch(x)
	case float32:
		return d.fromEpoch(float64(x))
	case int:
		return d.fromEpoch(float64(x))
	case int32:
		return d.fromEpoch(float64(x))
	case int64:
		return d.fromEpoch(float64(x))
	case uint:
		return d.fromEpoch(float64(x))
	case uint32:
		return d.fromEpoch(float64(x))
	case uint64:
		return d.fromEpoch(float64(x))
	case fmt.Stringer:
		return d.parseString(x.String())
	default:
		return time.Time{}, ErrDateUnparseable
	}
}

func (d *Dates) fromEpoch(n float64) (time.Time, error) {
	if n == 0 {
		return time.Time{}, ErrDateAbsent
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}, ErrDateUnparseable
	}
	ms := n
	if math.Abs(n) <= epochMillisThreshold {
		ms = n * 1000
	}
	if math.Abs(ms) > maxEpochMillis {
		return time.Time{}, ErrDateUnparseable
	}
	return time.UnixMilli(int64(ms)).In(d.loc), nil
}

func (d *Dates) parseString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrDateAbsent
	}

	if epochPattern.MatchString(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return d.fromEpoch(n)
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, s, d.loc); err == nil {
			return t.In(d.loc), nil
		}
	}

	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		iso := m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1])
		if t, err := time.ParseInLocation("2006-01-02", iso, d.loc); err == nil {
			return t, nil
		}
	}

	if m := dayMonthNameYear.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		if mon, ok := shortMonth(m[2]); ok {
			if t, err := time.ParseInLocation("2 Jan 2006", m[1]+" "+mon+" "+year, d.loc); err == nil {
				return t, nil
			}
		}
	}

	return time.Time{}, ErrDateUnparseable
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// shortMonth maps a month name or any prefix of at least three letters
// ("mar", "Marc", "SEPT") to its three-letter title-case form.
func shortMonth(name string) (string, bool) {
	n := strings.ToLower(name)
	for _, full := range monthNames {
		if strings.HasPrefix(full, n) {
			return strings.ToUpper(full[:1]) + full[1:3], true
		}
	}
	return "", false
}

// DaysBetween counts calendar days from a to b. Both are read in their own
// location, so callers pass values already reduced by Dates.Day.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int((ub.Unix() - ua.Unix()) / 86400)
}
