package template

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n(.*?)```")

// Extract pulls a template out of free-form generator output. The first
// fenced code block that validates wins, then the first fenced block, then
// the whole text.
func Extract(text string) string {
	matches := fencedBlock.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(text)
	}

	for _, m := range matches {
		if body := strings.TrimSpace(m[1]); Validate(body).Valid {
			return body
		}
	}
	return strings.TrimSpace(matches[0][1])
}
