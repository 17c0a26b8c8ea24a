package spider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homePage = `<html><body>
<div class="menu">
  <a href="https://example.com/desserts/">Desserts</a>
  <a href="https://example.com/recipe/menu-special/">Special</a>
</div>
<div class="posts">
  <a href="https://example.com/recipe/cilantro-dressing/">Dressing</a>
  <a href="https://example.com/about/">About</a>
</div>
<a href="https://example.com/contact">Contact</a>
</body></html>`

func TestClassify(t *testing.T) {
	doc, err := NewDocument("https://example.com/recipes/", nil, []byte(homePage))
	require.NoError(t, err)

	tests := []struct {
		name  string
		rules RuleSet
		want  []string
	}{
		{
			name: "traverse and terminal",
			rules: RuleSet{
				Traverse("category", `^https://example\.com/\w+/$`, ""),
				Terminal("recipe", `^https://example\.com/recipe/[\w-]+/$`, ""),
			},
			want: []string{
				"category https://example.com/desserts/",
				"recipe https://example.com/recipe/menu-special/",
				"recipe https://example.com/recipe/cilantro-dressing/",
				"category https://example.com/about/",
			},
		},
		{
			name: "first declared rule wins",
			rules: RuleSet{
				Terminal("anything", `example\.com/`, ""),
				Traverse("category", `^https://example\.com/\w+/$`, ""),
			},
			want: []string{
				"anything https://example.com/desserts/",
				"anything https://example.com/recipe/menu-special/",
				"anything https://example.com/recipe/cilantro-dressing/",
				"anything https://example.com/about/",
				"anything https://example.com/contact",
			},
		},
		{
			name: "scope restricts a rule",
			rules: RuleSet{
				Traverse("category", `^https://example\.com/\w+/$`, `//div[@class="menu"]`),
				Terminal("recipe", `/recipe/`, `//div[@class="posts"]`),
			},
			want: []string{
				"category https://example.com/desserts/",
				"recipe https://example.com/recipe/cilantro-dressing/",
			},
		},
		{
			name: "out of scope falls through to next rule",
			rules: RuleSet{
				Terminal("posted", `/recipe/`, `//div[@class="posts"]`),
				Traverse("any-recipe", `/recipe/`, ""),
			},
			want: []string{
				"any-recipe https://example.com/recipe/menu-special/",
				"posted https://example.com/recipe/cilantro-dressing/",
			},
		},
		{
			name:  "no rules",
			rules: RuleSet{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, l := range tt.rules.Classify(doc) {
				got = append(got, l.Rule.Name+" "+l.URL)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleSetMatch(t *testing.T) {
	rules := RuleSet{
		Traverse("category", `^https://example\.com/\w+/$`, `//div`),
		Terminal("recipe", `^https://example\.com/recipe/[\w-]+/$`, ""),
	}

	assert.Equal(t, "category", rules.Match("https://example.com/desserts/").Name)
	assert.Equal(t, "recipe", rules.Match("https://example.com/recipe/cilantro-dressing/").Name)
	assert.Nil(t, rules.Match("https://example.com/"))
}

func TestNewRule(t *testing.T) {
	_, err := NewRule("bad", "(", "", RoleTraverse)
	assert.Error(t, err)

	_, err = NewRule("bad", "x", "//div[", RoleTraverse)
	assert.Error(t, err)

	r, err := NewRule("ok", "x", `//div[@id="content"]`, RoleTerminal)
	require.NoError(t, err)
	assert.Equal(t, "terminal", r.Role.String())
	assert.False(t, r.Follow)
	assert.True(t, r.Following().Follow)

	assert.Panics(t, func() { Traverse("bad", "(", "") })
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"": RoleTraverse, "traverse": RoleTraverse, "terminal": RoleTerminal} {
		got, err := ParseRole(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseRole("leaf")
	assert.Error(t, err)
}

func TestRequestFollow(t *testing.T) {
	site := NewSite(WithMaxDepth(2))
	traverse := Traverse("c", "x", "")
	terminal := Terminal("r", "x", "")
	following := Terminal("r", "x", "").Following()

	tests := []struct {
		name     string
		req      *Request
		follow   bool
		terminal bool
		checkErr bool
	}{
		{name: "seed", req: &Request{Site: site}, follow: true},
		{name: "seed classified terminal", req: &Request{Site: site, Rule: terminal}, follow: true, terminal: true},
		{name: "traverse", req: &Request{Site: site, Depth: 1, Rule: traverse}, follow: true},
		{name: "terminal", req: &Request{Site: site, Depth: 1, Rule: terminal}, terminal: true},
		{name: "following terminal", req: &Request{Site: site, Depth: 2, Rule: following}, follow: true, terminal: true},
		{name: "too deep", req: &Request{Site: site, Depth: 3, Rule: traverse}, follow: true, checkErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.follow, tt.req.Follow())
			assert.Equal(t, tt.terminal, tt.req.Terminal())
			assert.Equal(t, tt.checkErr, tt.req.Check() != nil)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "HTTPS://Example.COM", want: "https://example.com/"},
		{in: "https://example.com:443/a/#frag", want: "https://example.com/a/"},
		{in: "http://example.com:8080/a?b=1", want: "http://example.com:8080/a?b=1"},
		{in: "http://example.com:80/a/", want: "http://example.com/a/"},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	a := &Request{URL: "https://example.com/recipe/x/#top"}
	b := &Request{URL: "https://EXAMPLE.com/recipe/x/"}
	assert.Equal(t, a.Unique(), b.Unique())
}
