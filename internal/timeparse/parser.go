// Package timeparse turns natural-language time expressions (Russian and
// English) into concrete timestamps.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognized wraps every parse failure so handlers can keep the FSM
// state and re-prompt instead of aborting the dialog.
var ErrUnrecognized = errors.New("time format not recognized")

// MaxAhead bounds how far in the future a reminder may be scheduled.
const MaxAhead = 365 * 24 * time.Hour

type relativeRule struct {
	re   *regexp.Regexp
	unit time.Duration
}

type absoluteRule struct {
	re   *regexp.Regexp
	kind string // today, tomorrow, day_after, weekday, date
}

var relativeRules = []relativeRule{
	{regexp.MustCompile(`через\s+(\d+)\s+(минут[ауы]?|мин)`), time.Minute},
	{regexp.MustCompile(`через\s+(\d+)\s+(час[аов]*)`), time.Hour},
	{regexp.MustCompile(`через\s+(\d+)\s+(день|дня|дней)`), 24 * time.Hour},
	{regexp.MustCompile(`через\s+(\d+)\s+(неделя|недели|недель|неделю)`), 7 * 24 * time.Hour},
	{regexp.MustCompile(`in\s+(\d+)\s+(minutes?|mins?)`), time.Minute},
	{regexp.MustCompile(`in\s+(\d+)\s+(hours?)`), time.Hour},
	{regexp.MustCompile(`in\s+(\d+)\s+(days?)`), 24 * time.Hour},
	{regexp.MustCompile(`in\s+(\d+)\s+(weeks?)`), 7 * 24 * time.Hour},
}

var absoluteRules = []absoluteRule{
	{regexp.MustCompile(`сегодня\s+в\s+(\d{1,2}):(\d{2})`), "today"},
	{regexp.MustCompile(`today\s+at\s+(\d{1,2}):(\d{2})`), "today"},
	// послезавтра before завтра: the latter matches inside the former.
	{regexp.MustCompile(`послезавтра\s+в\s+(\d{1,2}):(\d{2})`), "day_after"},
	{regexp.MustCompile(`завтра\s+в\s+(\d{1,2}):(\d{2})`), "tomorrow"},
	{regexp.MustCompile(`tomorrow\s+at\s+(\d{1,2}):(\d{2})`), "tomorrow"},
	{regexp.MustCompile(`в\s+(понедельник|вторник|среду|четверг|пятницу|субботу|воскресенье)\s+в\s+(\d{1,2}):(\d{2})`), "weekday"},
	{regexp.MustCompile(`on\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\s+at\s+(\d{1,2}):(\d{2})`), "weekday"},
	{regexp.MustCompile(`(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?\s+в\s+(\d{1,2}):(\d{2})`), "date"},
}

var weekdays = map[string]time.Weekday{
	"понедельник": time.Monday,
	"вторник":     time.Tuesday,
	"среду":       time.Wednesday,
	"четверг":     time.Thursday,
	"пятницу":     time.Friday,
	"субботу":     time.Saturday,
	"воскресенье": time.Sunday,
	"monday":      time.Monday,
	"tuesday":     time.Tuesday,
	"wednesday":   time.Wednesday,
	"thursday":    time.Thursday,
	"friday":      time.Friday,
	"saturday":    time.Saturday,
	"sunday":      time.Sunday,
}

// Parser resolves expressions against a timezone. The now func is swappable
// for tests.
type Parser struct {
	loc *time.Location
	now func() time.Time
}

func New(tz string) (*Parser, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("bad timezone %q: %w", tz, err)
	}
	return &Parser{loc: loc, now: time.Now}, nil
}

// Parse resolves a time expression. Relative forms win over absolute ones,
// matching how people shorthand ("через 5 минут" inside a longer phrase).
func (p *Parser) Parse(input string) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	now := p.now().In(p.loc)

	if t, ok := p.parseRelative(s, now); ok {
		return t, nil
	}
	if t, ok := p.parseAbsolute(s, now); ok {
		return t, nil
	}
	if t, ok := p.parseSpecial(s, now); ok {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, input)
}

func (p *Parser) parseRelative(s string, now time.Time) (time.Time, bool) {
	for _, rule := range relativeRules {
		m := rule.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return now.Add(time.Duration(n) * rule.unit), true
	}
	return time.Time{}, false
}

func (p *Parser) parseAbsolute(s string, now time.Time) (time.Time, bool) {
	for _, rule := range absoluteRules {
		m := rule.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		switch rule.kind {
		case "today":
			t, ok := atClock(now, m[1], m[2])
			if !ok {
				continue
			}
			if !t.After(now) {
				t = t.AddDate(0, 0, 1) // time already passed today
			}
			return t, true

		case "tomorrow":
			t, ok := atClock(now, m[1], m[2])
			if !ok {
				continue
			}
			return t.AddDate(0, 0, 1), true

		case "day_after":
			t, ok := atClock(now, m[1], m[2])
			if !ok {
				continue
			}
			return t.AddDate(0, 0, 2), true

		case "weekday":
			wd, known := weekdays[m[1]]
			if !known {
				continue
			}
			t, ok := atClock(now, m[2], m[3])
			if !ok {
				continue
			}
			return nextWeekday(t, now, wd), true

		case "date":
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			year := now.Year()
			explicitYear := m[3] != ""
			if explicitYear {
				year, _ = strconv.Atoi(m[3])
			}
			hour, _ := strconv.Atoi(m[4])
			minute, _ := strconv.Atoi(m[5])
			if !validClock(hour, minute) || !validDate(year, month, day) {
				continue
			}

			t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, p.loc)
			if !t.After(now) && !explicitYear {
				t = t.AddDate(1, 0, 0) // e.g. "01.01 в 10:00" said in March
			}
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *Parser) parseSpecial(s string, now time.Time) (time.Time, bool) {
	evening := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, p.loc)
	if !evening.After(now) {
		evening = evening.AddDate(0, 0, 1)
	}
	morning := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, p.loc).AddDate(0, 0, 1)

	specials := []struct {
		phrase string
		t      time.Time
	}{
		{"сейчас", now.Add(time.Minute)},
		{"скоро", now.Add(15 * time.Minute)},
		{"потом", now.Add(2 * time.Hour)},
		{"позже", now.Add(4 * time.Hour)},
		{"вечером", evening},
		{"утром", morning},
	}

	for _, sp := range specials {
		if strings.Contains(s, sp.phrase) {
			return sp.t, true
		}
	}
	return time.Time{}, false
}

// Validate rejects times the scheduler will not accept.
func (p *Parser) Validate(t time.Time) error {
	now := p.now().In(p.loc)
	if !t.After(now) {
		return errors.New("время должно быть в будущем")
	}
	if t.After(now.Add(MaxAhead)) {
		return errors.New("время слишком далеко в будущем")
	}
	return nil
}

// Location returns the parser's timezone.
func (p *Parser) Location() *time.Location {
	return p.loc
}

func atClock(now time.Time, hourStr, minStr string) (time.Time, bool) {
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minStr)
	if !validClock(hour, minute) {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), true
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	// time.Date normalizes overflow, so check by round-trip.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}

// nextWeekday moves t to the next occurrence of wd strictly after today.
func nextWeekday(t, now time.Time, wd time.Weekday) time.Time {
	days := int(wd) - int(now.Weekday())
	if days <= 0 {
		days += 7
	}
	return t.AddDate(0, 0, days)
}
