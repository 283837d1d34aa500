// Package postmortem files postmortem issues on GitHub for completed
// analyses.
package postmortem

import (
	"context"
	"fmt"
	"strings"

	gogh "github.com/google/go-github/v68/github"

	"github.com/Jencheng1/sre-copilot/internal/analyzer"
	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// issueCreator is the slice of the GitHub API the client needs.
type issueCreator interface {
	Create(ctx context.Context, owner, repo string, issue *gogh.IssueRequest) (*gogh.Issue, *gogh.Response, error)
}

// Client files postmortem issues in a single repository.
type Client struct {
	issues issueCreator
	owner  string
	repo   string
}

// NewClient creates a postmortem client for the "owner/repo" repository,
// authenticated with the given token.
func NewClient(token, repoFullName string) (*Client, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}
	gh := gogh.NewClient(nil).WithAuthToken(token)
	return &Client{issues: gh.Issues, owner: owner, repo: repo}, nil
}

// FileIssue opens a postmortem issue for a completed analysis and returns
// the issue URL.
func (c *Client) FileIssue(ctx context.Context, inc *incident.Incident, res *analyzer.Result) (string, error) {
	title := fmt.Sprintf("Postmortem: %s (%s)", inc.Title, inc.ID)
	body := renderBody(inc, res)
	labels := []string{"postmortem", strings.ToLower(inc.Severity)}

	issue, _, err := c.issues.Create(ctx, c.owner, c.repo, &gogh.IssueRequest{
		Title:  gogh.Ptr(title),
		Body:   gogh.Ptr(body),
		Labels: &labels,
	})
	if err != nil {
		return "", fmt.Errorf("creating postmortem issue: %w", err)
	}
	return issue.GetHTMLURL(), nil
}

// renderBody lays out the analysis as a markdown postmortem document.
func renderBody(inc *incident.Incident, res *analyzer.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Incident\n\n")
	fmt.Fprintf(&b, "- **ID:** %s\n", inc.ID)
	fmt.Fprintf(&b, "- **Severity:** %s\n", inc.Severity)
	fmt.Fprintf(&b, "- **Started:** %s\n", inc.StartTime.Format("2006-01-02 15:04 MST"))
	if !inc.EndTime.IsZero() {
		fmt.Fprintf(&b, "- **Ended:** %s\n", inc.EndTime.Format("2006-01-02 15:04 MST"))
	}
	if inc.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", inc.Description)
	}

	if res.RootCause != nil {
		fmt.Fprintf(&b, "\n## Root Cause\n\n%s\n", res.RootCause.Description)
		fmt.Fprintf(&b, "\n_Confidence: %.0f%%_\n", res.RootCause.Confidence*100)
		for _, e := range res.RootCause.Evidence {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if res.Impact != nil {
		fmt.Fprintf(&b, "\n## Impact\n\n%s\n", res.Impact.Description)
	}
	if len(res.KeyFindings) > 0 {
		b.WriteString("\n## Key Findings\n\n")
		for _, f := range res.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(res.Recommendations) > 0 {
		b.WriteString("\n## Action Items\n\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&b, "- [ ] %s\n", r)
		}
	}

	return b.String()
}

func splitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
