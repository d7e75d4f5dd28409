package problem

import (
	"strings"
	"unicode"
)

const fence = "```"

// Parse converts statement text into a Problem. It never fails: every missing
// section becomes an empty string and the sample list always holds exactly one
// pair built from the first Sample Input and Sample Output sections.
//
// Title is the first non-blank line of the whole text, whichever section it
// belongs to. After a Serialize round trip it is therefore always
// "### Problem Statement".
func Parse(text string) Problem {
	doc := Tokenize(text)
	return Problem{
		Title:        firstNonBlankLine(text),
		Description:  doc.Text(HeadingStatement),
		InputFormat:  doc.Text(HeadingInputFormat),
		OutputFormat: doc.Text(HeadingOutputFormat),
		Constraints:  doc.Text(HeadingConstraints),
		Samples: []Sample{{
			Input:  stripFence(doc.Text(HeadingSampleInput)),
			Output: stripFence(doc.Text(HeadingSampleOutput)),
		}},
		TimeLimit:   doc.Text(HeadingTimeLimit),
		MemoryLimit: doc.Text(HeadingMemoryLimit),
	}
}

func firstNonBlankLine(text string) string {
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// stripFence removes a surrounding code fence (with or without a language tag)
// and then any stray backticks and whitespace at either end.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[len(fence):nl], "`") {
			s = s[nl+1:]
		}
	}
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '`' || unicode.IsSpace(r)
	})
}
