package hook

// NormalizeSlack maps a Slack Events API callback payload into a
// normalized Event. The interesting content sits under the nested "event"
// object; its "type" plays the role GitHub's action string plays. As with
// Normalize, unrecognized shapes degrade to KindUnknown and the function
// never fails.
func NormalizeSlack(payload map[string]interface{}) Event {
	inner := nested(payload, "event")
	eventType, _ := inner["type"].(string)

	evt := Event{
		Kind:   classifySlack(eventType),
		Repo:   slackChannel(inner),
		Action: eventType,
		Raw:    payload,
	}

	switch evt.Kind {
	case KindMessagePosted, KindAppMention:
		data := map[string]interface{}{}
		putIfPresent(data, "channel", inner["channel"])
		putIfPresent(data, "user", inner["user"])
		putIfPresent(data, "text", inner["text"])
		putIfPresent(data, "ts", inner["ts"])
		evt.Data = data
	case KindReactionAdded:
		data := map[string]interface{}{}
		putIfPresent(data, "reaction", inner["reaction"])
		putIfPresent(data, "user", inner["user"])
		putIfPresent(data, "itemUser", inner["item_user"])
		putIfPresent(data, "channel", nested(inner, "item")["channel"])
		evt.Data = data
	default:
		evt.Data = payload
	}
	return evt
}

func classifySlack(eventType string) Kind {
	switch eventType {
	case "message":
		return KindMessagePosted
	case "app_mention":
		return KindAppMention
	case "reaction_added":
		return KindReactionAdded
	}
	return KindUnknown
}

func slackChannel(inner map[string]interface{}) string {
	if channel, ok := inner["channel"].(string); ok {
		return channel
	}
	channel, _ := nested(inner, "item")["channel"].(string)
	return channel
}
