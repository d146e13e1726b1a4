package scraper

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"

	"github.com/pfrederiksen/fixture-calendar/internal/fixture"
	"github.com/pfrederiksen/fixture-calendar/internal/logger"
)

const (
	// CellBreak marks the boundary of a table cell or inline element in
	// flattened text. Team names never span it.
	CellBreak = "\x1f"

	// maxFiller bounds the text allowed between a team pair and its date
	maxFiller = 200
	// minNameRunes is the shortest accepted team name
	minNameRunes = 3
)

var (
	// Home starts after the last element boundary that still leaves a pair,
	// and is the shortest run before the first separator. A bare hyphen only
	// separates when it has whitespace on at least one side, so
	// "Bielsko-Biała" stays one name; "A-B" is not a pair.
	pairPattern = regexp.MustCompile(`^(?:.*\x1f)?\s*([^\x1f]{3,}?)[\s\x1f]*(?:–[\s\x1f]*|\s-[\s\x1f]*|-[\s\x1f]+)(.+)$`)
	datePattern = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})(?:[\s\x1f]*,[\s\x1f]*(\d{2}:\d{2}))?`)
)

// blockElements start a new line when flattening markup
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tbody": true,
	"thead": true, "tfoot": true, "tr": true, "ul": true,
}

// Candidate is a raw pair/date match before filtering
type Candidate struct {
	Home string
	Away string
	Date string
	Time string
}

// Result is the outcome of one extraction
type Result struct {
	Fixtures []fixture.Fixture
	// Scanned counts candidates seen before the team filter
	Scanned int
	// Raw is the upstream document, kept for diagnostics
	Raw []byte
	// Strategy names the extractor that produced the result
	Strategy string
}

// TextExtractor finds fixtures in free-form page markup
type TextExtractor struct {
	source Source
	team   string
}

// NewTextExtractor creates a TextExtractor reading from source
func NewTextExtractor(source Source, team string) *TextExtractor {
	return &TextExtractor{source: source, team: team}
}

// Name returns the strategy name
func (e *TextExtractor) Name() string {
	return "text"
}

// Extract loads the page and returns the team's fixtures
func (e *TextExtractor) Extract(ctx context.Context) (*Result, error) {
	raw, err := e.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	res, err := ParseMarkup(bytes.NewReader(raw), e.team)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	res.Strategy = e.Name()

	logger.Info("Extracted fixtures from page", logger.Fields{
		"source":     e.source.Describe(),
		"candidates": res.Scanned,
		"fixtures":   len(res.Fixtures),
	})
	return res, nil
}

// ParseMarkup extracts the fixtures of team from page markup.
// Candidates with impossible dates or times are dropped.
func ParseMarkup(r io.Reader, team string) (*Result, error) {
	text, err := Flatten(r)
	if err != nil {
		return nil, err
	}

	candidates := ScanText(text)
	fixtures := make([]fixture.Fixture, 0)
	for _, c := range candidates {
		if !fixture.ContainsTeam(c.Home, c.Away, team) {
			continue
		}

		f, err := c.toFixture()
		if err != nil {
			logger.Debug("Dropped malformed candidate", logger.Fields{
				"home":   c.Home,
				"away":   c.Away,
				"date":   c.Date,
				"time":   c.Time,
				"reason": err.Error(),
			})
			continue
		}
		fixtures = append(fixtures, f)
	}

	return &Result{
		Fixtures: fixture.Dedupe(fixtures),
		Scanned:  len(candidates),
	}, nil
}

func (c Candidate) toFixture() (fixture.Fixture, error) {
	date, err := fixture.ParseDate(c.Date)
	if err != nil {
		return fixture.Fixture{}, err
	}
	clock, err := fixture.ParseOptionalClock(c.Time)
	if err != nil {
		return fixture.Fixture{}, err
	}
	return fixture.New(c.Home, c.Away, date, clock)
}

// Flatten renders markup as plain text. Block elements and line breaks become
// newlines, every other element is wrapped in CellBreak, and script-like
// elements are dropped. Entities are decoded by the parser.
func Flatten(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", errors.Wrap(err, "parsing HTML")
	}
	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		writeText(&b, n)
	}
	return b.String(), nil
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	}

	sep := ""
	if n.Type == html.ElementNode {
		sep = CellBreak
		if blockElements[n.Data] {
			sep = "\n"
		}
	}

	b.WriteString(sep)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	b.WriteString(sep)
}

// pendingPair is a team pair waiting for its date
type pendingPair struct {
	home, away string
	end        int // offset just past the away name
}

// ScanText finds every "HOME – AWAY … date[, time]" candidate in text.
// A pair is matched within a single line, the date may follow on later lines
// as long as no more than maxFiller characters separate them. A newer pair
// replaces an older one still waiting for a date.
func ScanText(text string) []Candidate {
	var (
		out     []Candidate
		pending *pendingPair
		offset  int
	)

	for _, line := range strings.SplitAfter(text, "\n") {
		pos := 0
		for pos <= len(line) {
			rest := line[pos:]
			loc := datePattern.FindStringSubmatchIndex(rest)

			head := rest
			if loc != nil {
				head = rest[:loc[0]]
			}
			if p := matchPair(head, offset+pos); p != nil {
				pending = p
			}

			if loc == nil {
				break
			}

			dateStart := offset + pos + loc[0]
			if pending != nil && fillerLen(text, pending.end, dateStart) <= maxFiller {
				c := Candidate{
					Home: pending.home,
					Away: pending.away,
					Date: rest[loc[2]:loc[3]],
				}
				if loc[4] >= 0 {
					c.Time = rest[loc[4]:loc[5]]
				}
				out = append(out, c)
			}
			pending = nil
			pos += loc[1]
		}
		offset += len(line)
	}
	return out
}

// matchPair looks for a team pair in head, which starts at offset base
func matchPair(head string, base int) *pendingPair {
	head = strings.TrimRight(head, "\r\n")
	m := pairPattern.FindStringSubmatchIndex(head)
	if m == nil {
		return nil
	}

	home := fixture.NormalizeName(head[m[2]:m[3]])
	rawAway := head[m[4]:m[5]]
	away, keep := cutAway(rawAway)
	if utf8.RuneCountInString(home) < minNameRunes || utf8.RuneCountInString(away) < minNameRunes {
		return nil
	}

	return &pendingPair{
		home: home,
		away: away,
		end:  base + m[4] + keep,
	}
}

var awayStops = []string{CellBreak, "...", "…", "|", ",", "("}

// cutAway trims trailing noise from an away name. It returns the cleaned name
// and the number of bytes of raw it occupies.
func cutAway(raw string) (string, int) {
	cut := len(raw)
	for _, stop := range awayStops {
		if i := strings.Index(raw, stop); i >= 0 && i < cut {
			cut = i
		}
	}

	kept := strings.TrimRight(raw[:cut], " \t\r\n -–:")
	return fixture.NormalizeName(kept), len(kept)
}

// fillerLen counts the characters between two offsets of text, ignoring
// element boundaries
func fillerLen(text string, from, to int) int {
	if to <= from {
		return 0
	}
	filler := text[from:to]
	return utf8.RuneCountInString(filler) - strings.Count(filler, CellBreak)
}
