package snapshot

import "regexp"

// Branch name fragments that look like issue references, checked in order:
// a Jira-style key ("ABC-123") anywhere in the name, or a leading numeric
// segment after a slash ("feature/123-add-login" -> "#123").
var (
	jiraKeyPattern = regexp.MustCompile(`(?:^|[/_-])([A-Z][A-Z0-9]+-\d+)`)
	numericPattern = regexp.MustCompile(`(?:^|/)(\d+)[-_]`)
)

// LinkedIssue derives an issue reference from a branch name.
// Returns an empty string when nothing in the name looks like one.
func LinkedIssue(name string) string {
	if m := jiraKeyPattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := numericPattern.FindStringSubmatch(name); m != nil {
		return "#" + m[1]
	}
	return ""
}
