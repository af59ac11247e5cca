package connector

import (
	"context"
	"net/http"

	"agenthooks/pkg/hook"

	"github.com/slack-go/slack"
)

// SlackConfig configures the Slack facade.
type SlackConfig struct {
	// SigningSecret verifies inbound Events API requests.
	SigningSecret string
	// BotToken authenticates outbound Web API calls.
	BotToken string
}

// Slack is the Slack connector: Events API ingestion plus message
// operations over the Web API, all returning the uniform result map.
type Slack struct {
	cfg    SlackConfig
	client *slack.Client
}

func NewSlack(cfg SlackConfig) *Slack {
	return &Slack{
		cfg:    cfg,
		client: slack.New(cfg.BotToken),
	}
}

// Name implements Connector.
func (s *Slack) Name() string {
	return "slack"
}

// HandleWebhook runs the inbound pipeline for an Events API request.
// Header names are expected lower-cased. The url_verification handshake
// returns the challenge in the result instead of dispatching.
func (s *Slack) HandleWebhook(body []byte, headers map[string]string, handlers hook.HandlerTable) hook.Result {
	if !s.verify(body, headers) {
		return hook.Fail("invalid signature")
	}
	payload, ok := parseBody(body)
	if !ok {
		return hook.Fail("malformed payload")
	}

	if callbackType, _ := payload["type"].(string); callbackType == "url_verification" {
		challenge, _ := payload["challenge"].(string)
		return hook.Ok(map[string]interface{}{"challenge": challenge})
	}

	evt := hook.NormalizeSlack(payload)
	return dispatch(s.Name(), evt, handlers)
}

func (s *Slack) verify(body []byte, headers map[string]string) bool {
	header := http.Header{}
	for key, value := range headers {
		header.Set(key, value)
	}
	verifier, err := slack.NewSecretsVerifier(header, s.cfg.SigningSecret)
	if err != nil {
		return false
	}
	if _, err := verifier.Write(body); err != nil {
		return false
	}
	return verifier.Ensure() == nil
}

// SendMessage posts a message to a channel.
func (s *Slack) SendMessage(ctx context.Context, channel, text string) hook.Result {
	respChannel, ts, err := s.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{"channel": respChannel, "ts": ts})
}

// UpdateMessage replaces the text of an existing message.
func (s *Slack) UpdateMessage(ctx context.Context, channel, ts, text string) hook.Result {
	respChannel, respTS, _, err := s.client.UpdateMessageContext(ctx, channel, ts, slack.MsgOptionText(text, false))
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{"channel": respChannel, "ts": respTS})
}

// DeleteMessage removes a message.
func (s *Slack) DeleteMessage(ctx context.Context, channel, ts string) hook.Result {
	respChannel, respTS, err := s.client.DeleteMessageContext(ctx, channel, ts)
	if err != nil {
		return failErr(err)
	}
	return hook.Ok(map[string]interface{}{"channel": respChannel, "ts": respTS})
}

// ChannelHistory fetches the most recent messages of a channel, capped
// at limit.
func (s *Slack) ChannelHistory(ctx context.Context, channel string, limit int) hook.Result {
	if limit <= 0 {
		limit = 50
	}
	resp, err := s.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channel,
		Limit:     limit,
	})
	if err != nil {
		return failErr(err)
	}
	messages := make([]map[string]interface{}, 0, len(resp.Messages))
	for _, message := range resp.Messages {
		messages = append(messages, map[string]interface{}{
			"user": message.User,
			"text": message.Text,
			"ts":   message.Timestamp,
		})
	}
	return hook.Ok(map[string]interface{}{"messages": messages, "count": len(messages)})
}
