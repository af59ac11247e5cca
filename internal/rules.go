package internal

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/PaesslerAG/jsonpath"
)

// Rule routes matching events to a topic. When is a govaluate expression
// evaluated against the event; Emit is the topic published on a match.
// Drivers optionally restricts which publisher drivers receive the topic.
type Rule struct {
	When    string   `yaml:"when"`
	Emit    string   `yaml:"emit"`
	Drivers []string `yaml:"drivers"`
}

// RuleMatch is one matched rule: the topic to emit and the drivers it is
// restricted to (empty means all configured drivers).
type RuleMatch struct {
	Topic   string
	Drivers []string
}

type compiledRule struct {
	emit    string
	drivers []string
	expr    *govaluate.EvaluableExpression
}

// RuleEngine evaluates routing rules against events. Expression parameters
// resolve against the flattened payload merged with the normalized fields
// (kind, provider, action, repo); bracket-escaped [$.path] parameters
// resolve with JSONPath against the raw payload object.
type RuleEngine struct {
	rules  []compiledRule
	strict bool
	logger *log.Logger
}

func NewRuleEngine(cfg RulesConfig) (*RuleEngine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	rules := make([]compiledRule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(rule.When, ruleFunctions)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", rule.When, err)
		}
		rules = append(rules, compiledRule{emit: rule.Emit, drivers: rule.Drivers, expr: expr})
	}

	return &RuleEngine{rules: rules, strict: cfg.Strict, logger: logger}, nil
}

// Evaluate returns the topics whose rules match the event.
func (r *RuleEngine) Evaluate(event Event) []RuleMatch {
	if len(r.rules) == 0 {
		return nil
	}

	params := newRuleParameters(event, r.strict)
	matches := make([]RuleMatch, 0, 1)
	for _, rule := range r.rules {
		result, err := rule.expr.Eval(params)
		if err != nil {
			if r.strict {
				continue
			}
			r.logger.Printf("rule eval failed: %v", err)
			continue
		}
		ok, _ := result.(bool)
		if ok {
			matches = append(matches, RuleMatch{Topic: rule.emit, Drivers: rule.drivers})
		}
	}
	return matches
}

// ruleParameters implements govaluate.Parameters over an event.
type ruleParameters struct {
	flat   map[string]interface{}
	raw    interface{}
	strict bool
}

func newRuleParameters(event Event, strict bool) ruleParameters {
	flat := map[string]interface{}{}
	if object, ok := event.RawObject.(map[string]interface{}); ok {
		flat = Flatten(object)
	}
	// Normalized fields win over same-named payload keys.
	flat["provider"] = event.Provider
	flat["kind"] = event.Kind
	flat["repo"] = event.Repo
	if event.Action != "" {
		flat["action"] = event.Action
	}
	for key, value := range event.Data {
		flat["data."+key] = value
	}
	return ruleParameters{flat: flat, raw: event.RawObject, strict: strict}
}

func (p ruleParameters) Get(name string) (interface{}, error) {
	if strings.HasPrefix(name, "$.") {
		value, err := jsonpath.Get(name, p.raw)
		if err != nil {
			if p.strict {
				return nil, err
			}
			return nil, nil
		}
		return value, nil
	}
	value, ok := p.flat[name]
	if !ok {
		if p.strict {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		return nil, nil
	}
	return value, nil
}

var ruleFunctions = map[string]govaluate.ExpressionFunction{
	// contains(haystack, needle) matches strings and arrays.
	"contains": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("contains expects 2 arguments")
		}
		needle := fmt.Sprintf("%v", args[1])
		switch haystack := args[0].(type) {
		case string:
			return strings.Contains(haystack, needle), nil
		case []interface{}:
			for _, item := range haystack {
				if fmt.Sprintf("%v", item) == needle {
					return true, nil
				}
			}
			return false, nil
		case nil:
			return false, nil
		default:
			return nil, fmt.Errorf("contains expects a string or array")
		}
	},
	// like(value, pattern) matches SQL-style patterns with % wildcards.
	"like": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("like expects 2 arguments")
		}
		value, _ := args[0].(string)
		pattern, _ := args[1].(string)
		expr, err := likePattern(pattern)
		if err != nil {
			return nil, err
		}
		return expr.MatchString(value), nil
	},
}

func likePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}
