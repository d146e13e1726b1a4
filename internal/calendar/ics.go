// Package calendar renders fixtures as an iCalendar (RFC 5545) document.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-sql/civil"
)

const (
	ProdID = "-//Fixture Calendar//fixture-calendar//PL"

	// maxLineOctets is the content line limit before folding
	maxLineOctets = 75
)

// Calendar is a publishable collection of events
type Calendar struct {
	Name     string
	TimeZone string
	Events   []Event
}

// Event is a single VEVENT. Timed events use Start and Duration, all-day
// events use Date and leave both zero.
type Event struct {
	UID         string
	Stamp       time.Time
	Summary     string
	Description string
	Location    string
	Categories  []string

	AllDay   bool
	Date     civil.Date
	Start    time.Time
	Duration time.Duration

	Alarm *Alarm
}

// Alarm is a DISPLAY reminder relative to the owning event's start
type Alarm struct {
	Trigger     time.Duration
	Description string
}

// String renders the calendar with CRLF line endings
func (c *Calendar) String() string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + ProdID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if c.Name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(c.Name))
	}
	if c.TimeZone != "" {
		writeLine(&ics, "X-WR-TIMEZONE:"+c.TimeZone)
	}

	for i := range c.Events {
		c.Events[i].write(&ics)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

// WriteTo writes the rendered calendar to w
func (c *Calendar) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, c.String())
	return int64(n), err
}

func (e *Event) write(ics *strings.Builder) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	writeLine(ics, "UID:"+e.UID)
	writeLine(ics, "DTSTAMP:"+formatICSTime(e.Stamp))

	if e.AllDay {
		writeLine(ics, "DTSTART;VALUE=DATE:"+formatICSDate(e.Date))
	} else {
		writeLine(ics, "DTSTART:"+formatICSTime(e.Start))
		writeLine(ics, "DURATION:"+formatDuration(e.Duration))
	}

	writeLine(ics, "SUMMARY:"+escapeICS(e.Summary))
	if e.Description != "" {
		writeLine(ics, "DESCRIPTION:"+escapeICS(e.Description))
	}
	if e.Location != "" {
		writeLine(ics, "LOCATION:"+escapeICS(e.Location))
	}
	if len(e.Categories) > 0 {
		escaped := make([]string, len(e.Categories))
		for i, cat := range e.Categories {
			escaped[i] = escapeICS(cat)
		}
		writeLine(ics, "CATEGORIES:"+strings.Join(escaped, ","))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	if e.AllDay {
		ics.WriteString("TRANSP:TRANSPARENT\r\n")
	} else {
		ics.WriteString("TRANSP:OPAQUE\r\n")
	}

	if e.Alarm != nil {
		ics.WriteString("BEGIN:VALARM\r\n")
		ics.WriteString("ACTION:DISPLAY\r\n")
		writeLine(ics, "DESCRIPTION:"+escapeICS(e.Alarm.Description))
		writeLine(ics, "TRIGGER:"+formatDuration(e.Alarm.Trigger))
		ics.WriteString("END:VALARM\r\n")
	}

	ics.WriteString("END:VEVENT\r\n")
}

// writeLine writes a folded content line terminated by CRLF
func writeLine(ics *strings.Builder, line string) {
	ics.WriteString(foldLine(line))
	ics.WriteString("\r\n")
}

// foldLine splits lines longer than 75 octets. Continuation lines start with
// a single space and never split a UTF-8 sequence.
func foldLine(line string) string {
	if len(line) <= maxLineOctets {
		return line
	}

	var b strings.Builder
	limit := maxLineOctets
	width := 0
	for _, r := range line {
		size := utf8.RuneLen(r)
		if size < 0 {
			size = len(string(utf8.RuneError))
		}
		if width+size > limit {
			b.WriteString("\r\n ")
			width = 1
			limit = maxLineOctets
		}
		b.WriteRune(r)
		width += size
	}
	return b.String()
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatICSDate formats a civil date as an iCalendar DATE value
func formatICSDate(d civil.Date) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// formatDuration formats d as an iCalendar duration such as "PT2H" or "-P5DT6H"
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours > 0 || minutes > 0 || seconds > 0 {
		b.WriteByte('T')
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
		if seconds > 0 {
			fmt.Fprintf(&b, "%dS", seconds)
		}
	}
	return b.String()
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
