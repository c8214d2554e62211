package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceRe = regexp.MustCompile("```(?:sql)?\\s*")
	limitRe = regexp.MustCompile(`(?i)\bLIMIT\b`)
)

// Clean normalizes raw generator output: Markdown code fences are
// removed, whitespace runs collapse to single spaces, and the result ends
// with exactly one semicolon. Clean runs before Check so the gate sees
// the statement the executor would see.
func Clean(raw string) string {
	s := fenceRe.ReplaceAllString(raw, "")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, "; ")
	if s == "" {
		return ""
	}
	return s + ";"
}

// EnforceLimit appends a LIMIT clause bounding the result to limit rows
// when the statement has none. Statements that already carry a LIMIT are
// returned unchanged, which makes the function idempotent. Must only be
// called on text that has passed Check.
func EnforceLimit(sqlText string, limit int) string {
	if limitRe.MatchString(sqlText) {
		return sqlText
	}
	sqlText = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(sqlText), ";"))
	return fmt.Sprintf("%s LIMIT %d;", sqlText, limit)
}
