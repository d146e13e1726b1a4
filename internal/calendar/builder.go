package calendar

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"

	"github.com/pfrederiksen/fixture-calendar/internal/fixture"
)

const (
	HomeDescription = "Wyślij bilety do druku"
	AwayDescription = "Ustal transport, obiad po drodze, pizza po meczu"

	DefaultDuration = 2 * time.Hour
)

// DefaultAlarmClock is Monday 09:00 of the match week
var DefaultAlarmClock = civil.Time{Hour: 9}

// uidNamespace scopes the name-based event UIDs
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pfrederiksen/fixture-calendar"))

// Options configures a Builder
type Options struct {
	Name       string
	Duration   time.Duration
	AlarmClock civil.Time
	Location   *time.Location
	// Now stamps events; time.Now when nil
	Now func() time.Time
}

// Builder maps resolved fixtures to calendar events
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder, filling unset options with defaults
func NewBuilder(opts Options) *Builder {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if !opts.AlarmClock.IsValid() {
		opts.AlarmClock = DefaultAlarmClock
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{opts: opts}
}

// DurationFromHours converts a possibly fractional hour count to a Duration
func DurationFromHours(hours float64) time.Duration {
	return time.Duration(math.Round(hours * float64(time.Hour)))
}

// Calendar builds the complete calendar, one event per fixture, ordered by start
func (b *Builder) Calendar(fixtures []fixture.Resolved) *Calendar {
	stamp := b.opts.Now().UTC().Truncate(time.Second)

	ordered := make([]fixture.Resolved, len(fixtures))
	copy(ordered, fixtures)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	cal := &Calendar{
		Name:   b.opts.Name,
		Events: make([]Event, 0, len(ordered)),
	}
	if b.opts.Location != nil {
		cal.TimeZone = b.opts.Location.String()
	}
	for _, r := range ordered {
		evt := b.Event(r)
		evt.Stamp = stamp
		cal.Events = append(cal.Events, evt)
	}
	return cal
}

// Event builds the event for one fixture
func (b *Builder) Event(r fixture.Resolved) Event {
	summary := fmt.Sprintf("%s – %s", r.Opponent, r.Venue.Tag())

	evt := Event{
		UID:         EventUID(r.Fixture),
		Stamp:       b.opts.Now().UTC().Truncate(time.Second),
		Summary:     summary,
		Description: Description(r.Venue),
		Location:    r.Stadium,
		Categories:  []string{r.Venue.Tag()},
		Alarm: &Alarm{
			Trigger:     ReminderOffset(r, b.opts.AlarmClock),
			Description: summary,
		},
	}

	if r.AllDay {
		evt.AllDay = true
		evt.Date = r.Date
	} else {
		evt.Start = r.Start
		evt.Duration = b.opts.Duration
	}
	return evt
}

// Description returns the fixed body text for a venue
func Description(v fixture.Venue) string {
	if v == fixture.VenueHome {
		return HomeDescription
	}
	return AwayDescription
}

// EventUID derives a stable UID from the fixture key
func EventUID(f fixture.Fixture) string {
	k := f.Key()
	name := fmt.Sprintf("%s|%s|%s|%s", k.Home, k.Away, k.Date, k.Time)
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@fixture-calendar"
}

// ReminderOffset returns the trigger offset from the event's start reference
// (kickoff, or midnight for all-day fixtures) to alarm on the Monday of the
// match week. The offset is computed on wall-clock values, so a DST change
// inside the week does not shift the reminder. It is negative whenever the
// reminder precedes the start, and positive for a Monday match before the
// alarm clock.
func ReminderOffset(r fixture.Resolved, alarm civil.Time) time.Duration {
	monday := MondayOf(r.Date)
	days := monday.DaysSince(r.Date)

	start := civil.Time{}
	if r.Time != nil {
		start = *r.Time
	}

	return time.Duration(days)*24*time.Hour + clockOffset(start, alarm)
}

// MondayOf returns the Monday of the ISO week containing d
func MondayOf(d civil.Date) civil.Date {
	weekday := d.In(time.UTC).Weekday()
	back := (int(weekday) + 6) % 7
	return d.AddDays(-back)
}

func clockOffset(from, to civil.Time) time.Duration {
	return time.Duration(to.Hour-from.Hour)*time.Hour +
		time.Duration(to.Minute-from.Minute)*time.Minute +
		time.Duration(to.Second-from.Second)*time.Second
}
