package worker

import (
	"context"
	"fmt"
	"sync"

	"agenthooks/pkg/connector"
)

// ConnectorClients hands connector facades to handlers based on the
// envelope's provider. Clients are built lazily on first use and cached
// for the life of the worker.
type ConnectorClients struct {
	GitHub connector.GitHubConfig
	Slack  connector.SlackConfig

	mu     sync.Mutex
	github *connector.GitHub
	slack  *connector.Slack
}

// Client implements the ClientProvider interface.
func (p *ConnectorClients) Client(ctx context.Context, evt *Event) (interface{}, error) {
	switch evt.Provider {
	case "github":
		return p.githubClient(ctx)
	case "slack":
		return p.slackClient(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", evt.Provider)
	}
}

func (p *ConnectorClients) githubClient(ctx context.Context) (*connector.GitHub, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.github != nil {
		return p.github, nil
	}
	client, err := connector.NewGitHub(ctx, p.GitHub)
	if err != nil {
		return nil, err
	}
	p.github = client
	return client, nil
}

func (p *ConnectorClients) slackClient() *connector.Slack {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slack == nil {
		p.slack = connector.NewSlack(p.Slack)
	}
	return p.slack
}

// GitHubClient returns the GitHub connector from an event if available.
func GitHubClient(evt *Event) (*connector.GitHub, bool) {
	if evt == nil {
		return nil, false
	}
	client, ok := evt.Client.(*connector.GitHub)
	return client, ok
}

// SlackClient returns the Slack connector from an event if available.
func SlackClient(evt *Event) (*connector.Slack, bool) {
	if evt == nil {
		return nil, false
	}
	client, ok := evt.Client.(*connector.Slack)
	return client, ok
}
