package toolbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// timecodeGrammar is the participle grammar for time tier values.
// Examples: "0", "12.345", "0:01:02.5", "1:02:03"
//
//nolint:govet // participle grammar tags are not standard struct tags
type timecodeGrammar struct {
	HMS     *hmsPart `parser:"( @@"`
	Seconds *string  `parser:"| ( @Float | @Int ) )"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type hmsPart struct {
	Hours   int    `parser:"@Int ':'"`
	Minutes int    `parser:"@Int ':'"`
	Seconds string `parser:"( @Float | @Int )"`
}

// timecodeLexer defines the lexer for time codes.
// Note: Float is listed before Int so "12.345" lexes as one token.
var timecodeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Float", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `:`},
})

// timecodeParser is the participle parser for time codes.
var timecodeParser = participle.MustBuild[timecodeGrammar](
	participle.Lexer(timecodeLexer),
)

// ParseTimecode parses a time tier value into seconds. Accepted forms are
// plain seconds ("12.345") and hours:minutes:seconds ("0:01:02.5").
func ParseTimecode(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time code")
	}

	parsed, err := timecodeParser.ParseString("", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time code %q: %w", s, err)
	}

	if parsed.HMS != nil {
		seconds, err := strconv.ParseFloat(parsed.HMS.Seconds, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time code %q: %w", s, err)
		}
		return float64(parsed.HMS.Hours)*3600 + float64(parsed.HMS.Minutes)*60 + seconds, nil
	}

	seconds, err := strconv.ParseFloat(*parsed.Seconds, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time code %q: %w", s, err)
	}
	return seconds, nil
}

// FormatSeconds renders a time in seconds the way the Toolbox time tiers
// expect it: three decimal places.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
