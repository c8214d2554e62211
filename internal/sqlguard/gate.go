// Package sqlguard decides whether model-generated SQL may be executed.
//
// The gate is a lexical classifier, not a parser: it strips comments,
// scans for mutating keywords, and rejects anything that is not a single
// SELECT statement. It is a defense-in-depth layer; the database role the
// agent connects with should independently be read-only.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// DangerousKeywords are mutating, DDL, and procedural keywords that are
// never allowed in a generated statement, matched as whole words.
var DangerousKeywords = []string{
	"DROP", "DELETE", "TRUNCATE", "INSERT", "UPDATE",
	"ALTER", "CREATE", "GRANT", "REVOKE", "EXECUTE",
	"EXEC", "CALL", "REPLACE",
}

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

	keywordRes = compileKeywords()

	// Patterns over the original (comment-retained) text that can smuggle
	// a second statement past keyword scanning.
	injectionRes = []*regexp.Regexp{
		regexp.MustCompile(`;\s*--`),
		regexp.MustCompile(`--[^\n]*;`),
		regexp.MustCompile(`(?s)/\*.*?;.*?\*/`),
	}
)

func compileKeywords() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp, len(DangerousKeywords))
	for _, kw := range DangerousKeywords {
		res[kw] = regexp.MustCompile(`\b` + kw + `\b`)
	}
	return res
}

// UnsafeError reports why a statement was rejected.
type UnsafeError struct {
	Reason string
}

func (e *UnsafeError) Error() string {
	return e.Reason
}

func unsafe(format string, args ...any) error {
	return &UnsafeError{Reason: fmt.Sprintf(format, args...)}
}

// Check classifies a candidate statement. It returns nil when the
// statement is a single SELECT with no denylisted keywords, and an
// *UnsafeError describing the rejection otherwise.
func Check(sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return unsafe("empty query")
	}

	stripped := StripComments(sqlText)
	upper := strings.ToUpper(stripped)

	for _, kw := range DangerousKeywords {
		if keywordRes[kw].MatchString(upper) {
			return unsafe("dangerous keyword: %s", kw)
		}
	}

	if !strings.HasPrefix(strings.TrimSpace(upper), "SELECT") {
		return unsafe("must start with SELECT")
	}

	// One trailing semicolon is fine; more than one means spliced statements.
	if strings.Count(stripped, ";") > 1 {
		return unsafe("multiple statements not allowed")
	}

	// Injection checks run against the original text so a semicolon hidden
	// inside a comment is still visible.
	for _, re := range injectionRes {
		if re.MatchString(sqlText) {
			return unsafe("potential injection pattern")
		}
	}

	return nil
}

// StripComments removes line comments (-- to end of line) and block
// comments (/* ... */, spanning newlines) from a statement.
func StripComments(sqlText string) string {
	sqlText = lineCommentRe.ReplaceAllString(sqlText, "")
	return blockCommentRe.ReplaceAllString(sqlText, "")
}
