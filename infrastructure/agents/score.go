package agents

import (
	"regexp"
	"strconv"
)

// ParseMethod records how a score was obtained from verifier text.
type ParseMethod string

const (
	// ParsedScoreLine means a "Score:" line was present.
	ParsedScoreLine ParseMethod = "score_line"

	// ParsedLastInteger means no "Score:" line existed and the last
	// integer token in the text was used instead.
	ParsedLastInteger ParseMethod = "last_integer"

	// ParsedNeutral means no numeric token existed at all and the
	// caller's neutral default was used. Callers must log this case.
	ParsedNeutral ParseMethod = "neutral_default"
)

// NeutralScore is the documented midpoint of the 0-100 verification
// convention, used when a verifier response contains no number at all.
const NeutralScore = 50

var (
	scoreLineRe = regexp.MustCompile(`(?mi)^\s*\**\s*score\s*\**\s*:\s*\[?\s*(-?\d+(?:\.\d+)?)`)
	integerRe   = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// ParseScore extracts a numeric score from verifier text. It prefers an
// explicit "Score:" line, falls back to the last numeric token in the
// text, and finally to the given neutral default. The fallback is
// deliberate degraded output, not an error; the method return value
// tells the caller which path was taken so it can be logged.
func ParseScore(text string, neutral float64) (float64, ParseMethod) {
	if m := scoreLineRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, ParsedScoreLine
		}
	}

	if all := integerRe.FindAllString(text, -1); len(all) > 0 {
		if v, err := strconv.ParseFloat(all[len(all)-1], 64); err == nil {
			return v, ParsedLastInteger
		}
	}

	return neutral, ParsedNeutral
}
