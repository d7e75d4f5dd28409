package problem

import "strings"

// Serialize renders the problem back into sectioned text using "### " headings
// in canonical order. Each sample contributes an adjacent Sample Input /
// Sample Output pair.
func Serialize(p Problem) string {
	var parts []string
	section := func(h Heading, body string) {
		parts = append(parts, "### "+string(h), body, "")
	}
	section(HeadingStatement, p.Description)
	section(HeadingInputFormat, p.InputFormat)
	section(HeadingOutputFormat, p.OutputFormat)
	section(HeadingConstraints, p.Constraints)
	for _, sample := range p.Samples {
		section(HeadingSampleInput, strings.TrimSpace(sample.Input))
		section(HeadingSampleOutput, strings.TrimSpace(sample.Output))
	}
	section(HeadingTimeLimit, p.TimeLimit)
	parts = append(parts, "### "+string(HeadingMemoryLimit), p.MemoryLimit)
	return strings.Join(parts, "\n")
}
