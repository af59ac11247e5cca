package connector

import (
	"context"
	"errors"
	"strings"

	"agenthooks/pkg/hook"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubConfig configures the GitHub facade. Exactly one auth mode is
// used: a personal access token, a GitHub App installation, or anonymous
// (read-only, heavily rate limited) when both are empty.
type GitHubConfig struct {
	// Secret is the webhook shared secret for inbound verification.
	Secret string
	// Token is a personal access token for outbound calls.
	Token string
	// AppID, PrivateKeyPath, and InstallationID select GitHub App auth.
	AppID          int64
	PrivateKeyPath string
	InstallationID int64
	// BaseURL overrides the API endpoint for GitHub Enterprise.
	BaseURL string
}

// GitHub is the GitHub connector: inbound webhook pipeline plus outbound
// issue and pull request operations, every one of which returns the
// uniform result map.
type GitHub struct {
	cfg    GitHubConfig
	client *gh.Client
}

// NewGitHub builds a GitHub connector. App auth exchanges an
// installation token at construction time.
func NewGitHub(ctx context.Context, cfg GitHubConfig) (*GitHub, error) {
	token := cfg.Token
	if token == "" && cfg.AppID != 0 {
		if cfg.InstallationID == 0 {
			return nil, errors.New("github installation id is required for app auth")
		}
		authenticator := newAppAuthenticator(cfg.AppID, cfg.PrivateKeyPath, cfg.BaseURL)
		exchanged, err := authenticator.installationToken(ctx, cfg.InstallationID)
		if err != nil {
			return nil, err
		}
		token = exchanged
	}

	var httpClient = oauth2.NewClient(ctx, nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL != "" && baseURL != defaultGitHubBaseURL {
		client, err := gh.NewEnterpriseClient(baseURL, baseURL, httpClient)
		if err != nil {
			return nil, err
		}
		return &GitHub{cfg: cfg, client: client}, nil
	}
	return &GitHub{cfg: cfg, client: gh.NewClient(httpClient)}, nil
}

// Name implements Connector.
func (g *GitHub) Name() string {
	return "github"
}

// HandleWebhook runs the inbound pipeline: verify the signature against
// the shared secret, normalize the payload, and dispatch to the supplied
// handlers. Header names are expected lower-cased.
func (g *GitHub) HandleWebhook(body []byte, headers map[string]string, handlers hook.HandlerTable) hook.Result {
	if !hook.ValidateSignature(body, headers["x-hub-signature-256"], g.cfg.Secret) {
		return hook.Fail("invalid signature")
	}
	payload, ok := parseBody(body)
	if !ok {
		return hook.Fail("malformed payload")
	}
	evt := hook.Normalize(headers["x-github-event"], payload)
	return dispatch(g.Name(), evt, handlers)
}

// CreateIssue opens a new issue.
func (g *GitHub) CreateIssue(ctx context.Context, repo, title, body string, labels []string) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	request := &gh.IssueRequest{
		Title: gh.String(title),
		Body:  gh.String(body),
	}
	if len(labels) > 0 {
		request.Labels = &labels
	}
	issue, _, err := g.client.Issues.Create(ctx, owner, name, request)
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{"issue": issueFields(issue)})
}

// GetIssue fetches a single issue by number.
func (g *GitHub) GetIssue(ctx context.Context, repo string, number int) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	issue, _, err := g.client.Issues.Get(ctx, owner, name, number)
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{"issue": issueFields(issue)})
}

// ListIssues lists issues in the given state ("open", "closed", "all"),
// capped at limit.
func (g *GitHub) ListIssues(ctx context.Context, repo, state string, limit int) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	if state == "" {
		state = "open"
	}
	if limit <= 0 {
		limit = 30
	}
	issues, _, err := g.client.Issues.ListByRepo(ctx, owner, name, &gh.IssueListByRepoOptions{
		State:       state,
		ListOptions: gh.ListOptions{PerPage: limit},
	})
	if err != nil {
		return failErr(err)
	}
	items := make([]map[string]interface{}, 0, len(issues))
	for _, issue := range issues {
		// ListByRepo also returns pull requests; keep plain issues only.
		if issue.IsPullRequest() {
			continue
		}
		items = append(items, issueFields(issue))
	}
	return hook.Ok(map[string]interface{}{"issues": items, "count": len(items)})
}

// AddIssueComment comments on an issue.
func (g *GitHub) AddIssueComment(ctx context.Context, repo string, number int, body string) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	comment, _, err := g.client.Issues.CreateComment(ctx, owner, name, number, &gh.IssueComment{
		Body: gh.String(body),
	})
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{
		"commentId": comment.GetID(),
		"url":       comment.GetHTMLURL(),
	})
}

// CloseIssue closes an issue.
func (g *GitHub) CloseIssue(ctx context.Context, repo string, number int) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	issue, _, err := g.client.Issues.Edit(ctx, owner, name, number, &gh.IssueRequest{
		State: gh.String("closed"),
	})
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{"issue": issueFields(issue)})
}

// CreatePullRequest opens a pull request from head into base.
func (g *GitHub) CreatePullRequest(ctx context.Context, repo, title, head, base, body string) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	pr, _, err := g.client.PullRequests.Create(ctx, owner, name, &gh.NewPullRequest{
		Title: gh.String(title),
		Head:  gh.String(head),
		Base:  gh.String(base),
		Body:  gh.String(body),
	})
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{"pullRequest": prFields(pr)})
}

// GetPullRequest fetches a single pull request by number.
func (g *GitHub) GetPullRequest(ctx context.Context, repo string, number int) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	pr, _, err := g.client.PullRequests.Get(ctx, owner, name, number)
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{"pullRequest": prFields(pr)})
}

// ListPullRequests lists pull requests in the given state, capped at
// limit.
func (g *GitHub) ListPullRequests(ctx context.Context, repo, state string, limit int) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	if state == "" {
		state = "open"
	}
	if limit <= 0 {
		limit = 30
	}
	prs, _, err := g.client.PullRequests.List(ctx, owner, name, &gh.PullRequestListOptions{
		State:       state,
		ListOptions: gh.ListOptions{PerPage: limit},
	})
	if err != nil {
		return failErr(err)
	}
	items := make([]map[string]interface{}, 0, len(prs))
	for _, pr := range prs {
		items = append(items, prFields(pr))
	}
	return hook.Ok(map[string]interface{}{"pullRequests": items, "count": len(items)})
}

// MergePullRequest merges a pull request with the given commit message.
func (g *GitHub) MergePullRequest(ctx context.Context, repo string, number int, message string) hook.Result {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return failErr(err)
	}
	result, _, err := g.client.PullRequests.Merge(ctx, owner, name, number, message, nil)
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{
		"merged": result.GetMerged(),
		"sha":    result.GetSHA(),
	})
}

func issueFields(issue *gh.Issue) map[string]interface{} {
	return map[string]interface{}{
		"number": issue.GetNumber(),
		"title":  issue.GetTitle(),
		"state":  issue.GetState(),
		"author": issue.GetUser().GetLogin(),
		"url":    issue.GetHTMLURL(),
	}
}

func prFields(pr *gh.PullRequest) map[string]interface{} {
	return map[string]interface{}{
		"number": pr.GetNumber(),
		"title":  pr.GetTitle(),
		"state":  pr.GetState(),
		"author": pr.GetUser().GetLogin(),
		"merged": pr.GetMerged(),
		"url":    pr.GetHTMLURL(),
	}
}

func splitRepo(repo string) (string, string, error) {
	owner, name, found := strings.Cut(repo, "/")
	if !found || owner == "" || name == "" {
		return "", "", errors.New("repo must be in owner/name form")
	}
	return owner, name, nil
}
