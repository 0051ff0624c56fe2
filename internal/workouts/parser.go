package workouts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	categoryMarker = "#"
	entryMarker    = "-"

	// entry line + sets/reps + weight + duration
	entryBlockLines = 4
)

type ParseErrorKind string

const (
	IncompleteEntry      ParseErrorKind = "IncompleteEntry"
	UnexpectedLineFormat ParseErrorKind = "UnexpectedLineFormat"
	NoValidWorkouts      ParseErrorKind = "NoValidWorkouts"
)

// ParseError aborts the whole parse, no workouts are returned alongside it.
type ParseError struct {
	Kind   ParseErrorKind
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// IsParseErrorKind reports whether err is (or wraps) a ParseError of the given kind.
func IsParseErrorKind(err error, kind ParseErrorKind) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr) && parseErr.Kind == kind
}

type parserState int

const (
	expectMarker parserState = iota
	consumingEntryBlock
)

type logParser struct {
	lines    []string
	cursor   int
	state    parserState
	category string

	userID int
	now    time.Time
	parsed []Workout
}

// Parse turns a workout log into workouts owned by userID and dated now.
//
//	#Legs
//	-Squat
//	3X10
//	50kg
//	20min
//
// A '#' line sets the category for the entries after it, a '-' line starts a
// fixed 4 line entry block. Unparsable numbers inside a block become 0,
// while any other line outside a block, blank ones included, fails the parse.
func Parse(rawText string, userID int, now time.Time) ([]Workout, error) {
	if rawText == "" {
		return nil, &ParseError{
			Kind:   NoValidWorkouts,
			Detail: "no valid workouts found",
		}
	}

	p := &logParser{
		lines:  splitLines(rawText),
		state:  expectMarker,
		userID: userID,
		now:    now,
	}

	for p.cursor < len(p.lines) {
		var err error
		switch p.state {
		case expectMarker:
			err = p.readMarker()
		case consumingEntryBlock:
			p.readEntryBlock()
		}
		if err != nil {
			return nil, err
		}
	}

	if len(p.parsed) == 0 {
		return nil, &ParseError{
			Kind:   NoValidWorkouts,
			Detail: "no valid workouts found",
		}
	}

	return p.parsed, nil
}

func (p *logParser) readMarker() error {
	line := p.lines[p.cursor]
	switch {
	case strings.HasPrefix(line, categoryMarker):
		p.category = strings.TrimSpace(strings.TrimPrefix(line, categoryMarker))
		p.cursor++
	case strings.HasPrefix(line, entryMarker):
		if remaining := len(p.lines) - p.cursor; remaining < entryBlockLines {
			return &ParseError{
				Kind: IncompleteEntry,
				Detail: fmt.Sprintf(
					"incomplete workout details for category %q, entry %q",
					p.category, entryName(line),
				),
			}
		}
		p.state = consumingEntryBlock
	default:
		return &ParseError{
			Kind:   UnexpectedLineFormat,
			Detail: fmt.Sprintf("unexpected line format: %q", line),
		}
	}
	return nil
}

func (p *logParser) readEntryBlock() {
	block := p.lines[p.cursor : p.cursor+entryBlockLines]

	sets, reps := parseSetsReps(block[1])
	weight := leadingFloat(block[2])
	duration := leadingFloat(block[3])

	p.parsed = append(p.parsed, Workout{
		UserID:         p.userID,
		Category:       p.category,
		WorkoutName:    entryName(block[0]),
		Sets:           sets,
		Reps:           reps,
		Weight:         weight,
		Duration:       duration,
		CaloriesBurned: CaloriesBurned(duration, weight),
		Date:           p.now,
	})

	p.cursor += entryBlockLines
	p.state = expectMarker
}

func splitLines(rawText string) []string {
	lines := strings.Split(rawText, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

func entryName(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, entryMarker))
}

// parseSetsReps reads "3X10" or "3setsX10reps". Without a separator the whole
// line is taken as sets.
func parseSetsReps(line string) (sets, reps int) {
	sep := strings.IndexAny(line, "Xx")
	if sep < 0 {
		return leadingInt(line), 0
	}
	return leadingInt(line[:sep]), leadingInt(line[sep+1:])
}

// leadingInt parses the run of digits the string starts with, 0 if there is none.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// leadingFloat parses "50kg", "12.5 min" and the like, 0 if no number leads the string.
func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c == '.' && !seenDot {
			seenDot = true
		} else if !isDigit(c) {
			break
		}
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
