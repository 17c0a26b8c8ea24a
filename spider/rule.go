package spider

import (
	"fmt"
	"regexp"

	"github.com/antchfx/xpath"
)

type Role int

const (
	// RoleTraverse rules accept links whose pages are fetched for more links.
	RoleTraverse Role = iota
	// RoleTerminal rules accept links whose pages are recipes.
	RoleTerminal
)

func (r Role) String() string {
	switch r {
	case RoleTraverse:
		return "traverse"
	case RoleTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps the configuration spelling of a role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "traverse":
		return RoleTraverse, nil
	case "terminal":
		return RoleTerminal, nil
	default:
		return 0, fmt.Errorf("unknown rule role %q", s)
	}
}

// 采集规则
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Scope   string // XPath of the region links are extracted from, empty for the whole page
	Role    Role
	Follow  bool // terminal pages also traversed

	scope *xpath.Expr
}

// NewRule compiles pattern and scope.
func NewRule(name, pattern, scope string, role Role) (*Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: compile pattern: %w", name, err)
	}

	r := &Rule{
		Name:    name,
		Pattern: re,
		Scope:   scope,
		Role:    role,
	}

	if scope != "" {
		if r.scope, err = xpath.Compile(scope); err != nil {
			return nil, fmt.Errorf("rule %s: compile scope: %w", name, err)
		}
	}

	return r, nil
}

// MustRule is NewRule for static rule tables.
func MustRule(name, pattern, scope string, role Role) *Rule {
	r, err := NewRule(name, pattern, scope, role)
	if err != nil {
		panic(err)
	}

	return r
}

// Traverse builds a traverse rule for static rule tables.
func Traverse(name, pattern, scope string) *Rule {
	return MustRule(name, pattern, scope, RoleTraverse)
}

// Terminal builds a terminal rule for static rule tables.
func Terminal(name, pattern, scope string) *Rule {
	return MustRule(name, pattern, scope, RoleTerminal)
}

// Following marks a terminal rule whose pages are traversed as well.
func (r *Rule) Following() *Rule {
	r.Follow = true

	return r
}

// RuleSet is evaluated in declaration order, first match wins.
type RuleSet []*Rule

// Match returns the first rule whose pattern accepts the URL. Scopes are
// ignored: a page's own URL is not located inside any document.
func (rs RuleSet) Match(u string) *Rule {
	for _, r := range rs {
		if r.Pattern.MatchString(u) {
			return r
		}
	}

	return nil
}

// Link is an outbound link accepted by a rule.
type Link struct {
	URL  string
	Rule *Rule
}

// Classify extracts the links of doc and assigns each to the first rule
// whose pattern matches it and whose scope contains it. Unmatched links are
// dropped. Discovery order within the document is preserved.
func (rs RuleSet) Classify(doc *Document) []Link {
	scoped := make([]map[string]bool, len(rs))
	for i, r := range rs {
		if r.scope == nil {
			continue
		}
		scoped[i] = make(map[string]bool)
		for _, l := range doc.scopedLinks(r.scope) {
			scoped[i][l] = true
		}
	}

	var links []Link
	for _, l := range doc.ExtractLinks() {
		for i, r := range rs {
			if scoped[i] != nil && !scoped[i][l] {
				continue
			}
			if r.Pattern.MatchString(l) {
				links = append(links, Link{URL: l, Rule: r})
				break
			}
		}
	}

	return links
}
