// Package whitelist restricts which API paths are exposed as tools.
package whitelist

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\\\{[^{}]*\\\}`)

// Rule is a single whitelist entry: either a literal path prefix or a path
// template containing {name} placeholders compiled to a pattern.
type Rule struct {
	raw     string
	pattern *regexp.Regexp // nil for literal rules
}

// Rules is an ordered set of whitelist rules. An empty set allows every path.
type Rules []Rule

// Parse splits a comma-separated rule list into Rules. Blank entries are
// dropped. Placeholder entries compile each {name} to a single non-empty path
// segment ([^/]+), anchored at the start, with an optional /... suffix.
func Parse(s string) Rules {
	var rules Rules
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		rule := Rule{raw: entry}
		if strings.Contains(entry, "{") {
			quoted := regexp.QuoteMeta(entry)
			quoted = placeholderPattern.ReplaceAllString(quoted, `[^/]+`)
			re, err := regexp.Compile("^" + quoted + "($|/.*)$")
			if err != nil {
				continue
			}
			rule.pattern = re
		}
		rules = append(rules, rule)
	}
	return rules
}

// Allows reports whether path may be exposed. With no rules configured every
// path is allowed; otherwise a path is allowed if any rule matches.
func (r Rules) Allows(path string) bool {
	if len(r) == 0 {
		return true
	}
	for _, rule := range r {
		if rule.matches(path) {
			return true
		}
	}
	return false
}

func (rule Rule) matches(path string) bool {
	if rule.pattern != nil {
		return rule.pattern.MatchString(path)
	}
	// Literal rules match exactly or on a segment boundary, so /task does
	// not leak through a /tasks rule.
	return path == rule.raw || strings.HasPrefix(path, rule.raw+"/")
}
