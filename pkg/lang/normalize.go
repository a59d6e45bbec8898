package lang

import "strings"

// Normalize prepares a snippet for parsing: line endings become "\n", blank
// leading and trailing lines and trailing whitespace are trimmed, and the
// indentation common to all non-blank lines is removed.
func Normalize(source string) string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(source, " \t\n"), "\n")

	first := 0
	for first < len(lines) && strings.TrimSpace(lines[first]) == "" {
		first++
	}

	lines = lines[first:]
	if len(lines) == 0 {
		return ""
	}

	indent := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		width := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || width < indent {
			indent = width
		}
	}

	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}

	return strings.Join(lines, "\n")
}
