package problem

import "strings"

// ExtractFencedBlock returns the body of the first fenced code block whose
// opening fence carries tag (compared case-insensitively; an empty tag matches
// a bare fence). The body is trimmed. ok is false when no such block exists or
// it is never closed.
func ExtractFencedBlock(text, tag string) (body string, ok bool) {
	lines := strings.Split(normalizeNewlines(text), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, fence) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(trimmed[len(fence):]), tag) {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), fence) {
				return strings.TrimSpace(strings.Join(lines[i+1:j], "\n")), true
			}
		}
		return "", false
	}
	return "", false
}
