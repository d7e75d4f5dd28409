package problem

import (
	"strings"
)

// Heading names one of the sections a statement is split into.
type Heading string

const (
	HeadingStatement    Heading = "Problem Statement"
	HeadingInputFormat  Heading = "Input Format"
	HeadingOutputFormat Heading = "Output Format"
	HeadingConstraints  Heading = "Constraints"
	HeadingSampleInput  Heading = "Sample Input"
	HeadingSampleOutput Heading = "Sample Output"
	HeadingTimeLimit    Heading = "Time Limit"
	HeadingMemoryLimit  Heading = "Memory Limit"
)

// Headings lists the known headings in canonical order.
func Headings() []Heading {
	return []Heading{
		HeadingStatement,
		HeadingInputFormat,
		HeadingOutputFormat,
		HeadingConstraints,
		HeadingSampleInput,
		HeadingSampleOutput,
		HeadingTimeLimit,
		HeadingMemoryLimit,
	}
}

// Section is the content found under one heading. Present distinguishes a
// heading that never appeared from one followed by nothing.
type Section struct {
	Heading Heading
	Text    string
	Present bool
}

// Document is the tokenized form of a statement: the first occurrence of every
// known heading mapped to its trimmed content.
type Document struct {
	sections map[Heading]Section
	order    []Heading
}

// Lookup returns the section for a heading. The boolean is false when the
// heading does not occur in the text.
func (d Document) Lookup(h Heading) (Section, bool) {
	sec, ok := d.sections[h]
	if !ok {
		return Section{Heading: h}, false
	}
	return sec, true
}

// Text returns the section content or "" when the heading is absent.
func (d Document) Text(h Heading) string {
	sec, _ := d.Lookup(h)
	return sec.Text
}

// Order returns the headings in the order they first appeared.
func (d Document) Order() []Heading {
	return append([]Heading{}, d.order...)
}

// Missing reports the known headings that do not occur in the text.
func (d Document) Missing() []Heading {
	var missing []Heading
	for _, h := range Headings() {
		if _, ok := d.sections[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Tokenize splits text into sections. A heading line is any line naming one of
// the known headings, optionally decorated with leading '#', an ordinal such as
// "3.", bold markers, or a trailing colon. A section runs until the next
// heading line or the end of text. Only the first occurrence of a heading is
// kept.
func Tokenize(text string) Document {
	doc := Document{sections: map[Heading]Section{}}
	lines := strings.Split(normalizeNewlines(text), "\n")

	var (
		current Heading
		open    bool
		body    []string
	)
	flush := func() {
		if !open {
			return
		}
		if _, seen := doc.sections[current]; !seen {
			doc.sections[current] = Section{
				Heading: current,
				Text:    strings.TrimSpace(strings.Join(body, "\n")),
				Present: true,
			}
			doc.order = append(doc.order, current)
		}
		body = body[:0]
	}
	for _, line := range lines {
		if h, ok := matchHeading(line); ok {
			flush()
			current = h
			open = true
			continue
		}
		if open {
			body = append(body, line)
		}
	}
	flush()
	return doc
}

func matchHeading(line string) (Heading, bool) {
	s := strings.TrimSpace(line)
	if s == "" || len(s) > 64 {
		return "", false
	}
	s = strings.TrimSpace(strings.TrimLeft(s, "#"))
	s = trimOrdinal(s)
	s = strings.Trim(s, "*_ ")
	s = strings.TrimSuffix(s, ":")
	s = strings.Trim(s, "*_ ")
	for _, h := range Headings() {
		if strings.EqualFold(s, string(h)) {
			return h, true
		}
	}
	return "", false
}

// trimOrdinal drops a list prefix like "3." or "3)".
func trimOrdinal(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) || (s[i] != '.' && s[i] != ')') {
		return s
	}
	return strings.TrimSpace(s[i+1:])
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
