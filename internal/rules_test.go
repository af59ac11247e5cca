package internal

import (
	"encoding/json"
	"testing"
)

func ruleEvent(t *testing.T, raw string, kind string) Event {
	t.Helper()
	var object map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &object); err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	action, _ := object["action"].(string)
	return Event{
		Provider:   "github",
		Kind:       kind,
		Action:     action,
		RawPayload: []byte(raw),
		RawObject:  object,
	}
}

// TestRuleEngineEvaluate tests that the rule engine matches on the
// normalized kind and the payload action.
func TestRuleEngineEvaluate(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: `kind == "pr-opened"`, Emit: "pr.opened"},
			{When: `kind == "pr-merged" && action == "closed"`, Emit: "pr.merged"},
		},
	}

	engine, err := NewRuleEngine(cfg)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}

	event := ruleEvent(t, `{"action":"opened"}`, "pr-opened")
	matches := engine.Evaluate(event)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Topic != "pr.opened" {
		t.Fatalf("expected topic pr.opened, got %q", matches[0].Topic)
	}
}

// TestRuleEngineEvaluateMissingField tests that a rule referencing a
// missing field does not match and does not error the batch.
func TestRuleEngineEvaluateMissingField(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: "missing == true", Emit: "never"},
			{When: `kind == "push"`, Emit: "push"},
		},
	}

	engine, err := NewRuleEngine(cfg)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}

	matches := engine.Evaluate(ruleEvent(t, `{}`, "push"))
	if len(matches) != 1 || matches[0].Topic != "push" {
		t.Fatalf("expected only the push topic, got %v", matches)
	}
}

// TestRuleEngineWithDrivers tests that driver restrictions survive into
// the match.
func TestRuleEngineWithDrivers(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: `action == "opened"`, Emit: "pr.opened", Drivers: []string{"amqp", "http"}},
		},
	}

	engine, err := NewRuleEngine(cfg)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}

	matches := engine.Evaluate(ruleEvent(t, `{"action":"opened"}`, "pr-opened"))
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if len(matches[0].Drivers) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(matches[0].Drivers))
	}
}

// TestRuleEngineFlattenedParameters tests that nested payload fields are
// reachable through their bracket-escaped flattened names.
func TestRuleEngineFlattenedParameters(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: `[pull_request.draft] == false`, Emit: "pr.ready"},
		},
	}

	engine, err := NewRuleEngine(cfg)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}

	matches := engine.Evaluate(ruleEvent(t, `{"pull_request":{"draft":false}}`, "pr-opened"))
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

// TestRuleEngineJSONPath tests that $.-prefixed parameters resolve with
// JSONPath against the raw payload, including array indexing.
func TestRuleEngineJSONPath(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: `[$.pull_request.draft] == false`, Emit: "pr.ready"},
			{When: `[$.pull_request.base.ref] == "main"`, Emit: "pr.main"},
		},
	}

	engine, err := NewRuleEngine(cfg)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}

	matches := engine.Evaluate(ruleEvent(t, `{"pull_request":{"draft":false,"base":{"ref":"main"}}}`, "pr-opened"))
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

// TestRuleEngineDataParameters tests that normalized data fields are
// reachable under the data. prefix.
func TestRuleEngineDataParameters(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: `[data.merged] == true`, Emit: "pr.merged"},
		},
	}

	engine, err := NewRuleEngine(cfg)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}

	event := ruleEvent(t, `{"action":"closed"}`, "pr-merged")
	event.Data = map[string]interface{}{"merged": true}
	matches := engine.Evaluate(event)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

// TestRuleEngineStrictMissing tests that strict mode skips rules whose
// parameters are missing instead of matching them.
func TestRuleEngineStrictMissing(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: "missing_field == true", Emit: "never"},
		},
		Strict: true,
	}

	engine, err := NewRuleEngine(cfg)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}

	matches := engine.Evaluate(ruleEvent(t, `{"action":"opened"}`, "pr-opened"))
	if len(matches) != 0 {
		t.Fatalf("expected no matches in strict mode, got %d", len(matches))
	}
}

// TestRuleEngineFunctions tests the contains and like helper functions.
func TestRuleEngineFunctions(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: `contains([$.labels], "bug")`, Emit: "label.bug"},
			{When: `like(ref, "refs/heads/%")`, Emit: "branch.push"},
		},
	}

	engine, err := NewRuleEngine(cfg)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}

	matches := engine.Evaluate(ruleEvent(t, `{"labels":["bug","ui"],"ref":"refs/heads/main"}`, "push"))
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

// TestRuleEngineInvalidExpression tests that compilation fails fast.
func TestRuleEngineInvalidExpression(t *testing.T) {
	cfg := RulesConfig{
		Rules: []Rule{
			{When: `kind == `, Emit: "broken"},
		},
	}

	if _, err := NewRuleEngine(cfg); err == nil {
		t.Fatalf("expected compile error")
	}
}
