// Package crosslink embeds and recovers the textual references that tie a
// GitLab issue to its Asana counterpart. The link is the only record of the
// pairing, so the write format is canonical and fixed, while extraction also
// accepts the legacy formats earlier deployments wrote.
package crosslink

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical write formats. Closure propagation depends on these staying
// extractable by the patterns below; do not change one without the other.
const (
	gitlabLinkPrefix = "GitLab Issue Link: "
	asanaLinkPrefix  = "Asana Task Link: "
)

// GitLabIssueURL builds the issue web URL from the instance base URL,
// project path, and issue IID.
func GitLabIssueURL(baseURL, projectPath, issueIID string) string {
	return fmt.Sprintf("%s/%s/-/issues/%s", strings.TrimSuffix(baseURL, "/"), projectPath, issueIID)
}

// GitLabIssueLink renders the canonical reference to a GitLab issue for
// embedding into an Asana task's notes.
func GitLabIssueLink(issueURL string) string {
	return gitlabLinkPrefix + issueURL
}

// AsanaTaskLink renders the canonical reference to an Asana task for
// embedding into a GitLab issue's description.
func AsanaTaskLink(taskURL string) string {
	return asanaLinkPrefix + taskURL
}

// AsanaTaskURL builds the task permalink from project and task GIDs. Used
// when the create response carries no permalink of its own.
func AsanaTaskURL(projectGID, taskGID string) string {
	return fmt.Sprintf("https://app.asana.com/0/%s/%s", projectGID, taskGID)
}

// Append attaches a cross-link to the end of a record body, preserving the
// existing text.
func Append(body, link string) string {
	if body == "" {
		return link
	}
	return body + "\n\n" + link
}

// Extraction accepts the canonical URL form plus the token conventions
// written by earlier deployments ("GitLab Issue: #42", "Asana Task #123").
var (
	gitlabPatterns = []*regexp.Regexp{
		regexp.MustCompile(`https?://[^\s/]+/\S+/-/issues/(\d+)`),
		regexp.MustCompile(`GitLab Issue:? #(\d+)`),
	}
	asanaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`https?://app\.asana\.com/0/\d+/(\d+)`),
		regexp.MustCompile(`Asana Task:? #(\d+)`),
	}
)

// ExtractGitLabIssueIID recovers a GitLab issue IID embedded in free text.
// The second return is false when no recognized convention matches; callers
// treat that as a reportable outcome, not an error.
func ExtractGitLabIssueIID(text string) (string, bool) {
	return extract(text, gitlabPatterns)
}

// ExtractAsanaTaskGID recovers an Asana task GID embedded in free text.
func ExtractAsanaTaskGID(text string) (string, bool) {
	return extract(text, asanaPatterns)
}

func extract(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
