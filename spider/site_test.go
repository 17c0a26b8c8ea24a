package spider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSiteAllowed(t *testing.T) {
	site := NewSite(WithAllowedDomains("ruled.me", ".Example.com"))

	tests := []struct {
		url  string
		want bool
	}{
		{url: "https://ruled.me/keto-recipes/", want: true},
		{url: "https://www.ruled.me/keto-recipes/", want: true},
		{url: "https://notruled.me/", want: false},
		{url: "https://EXAMPLE.com/x", want: true},
		{url: "https://cdn.example.com/x", want: true},
		{url: "https://example.org/x", want: false},
		{url: "/relative", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, site.Allowed(tt.url), tt.url)
	}

	assert.True(t, NewSite().Allowed("https://anything.net/"))
}

func TestSiteValidate(t *testing.T) {
	rules := WithRules(Traverse("c", "x", ""))

	tests := []struct {
		name    string
		site    *Site
		wantErr error
		ok      bool
	}{
		{name: "ok", site: NewSite(WithName("s"), WithStartURLs("https://ruled.me/"), rules), ok: true},
		{name: "no name", site: NewSite(WithStartURLs("https://ruled.me/"), rules)},
		{name: "no start", site: NewSite(WithName("s"), rules)},
		{name: "no rules", site: NewSite(WithName("s"), WithStartURLs("https://ruled.me/"))},
		{name: "no workers", site: NewSite(WithName("s"), WithStartURLs("https://ruled.me/"), rules, WithWorkers(0))},
		{
			name:    "start outside domains",
			site:    NewSite(WithName("s"), WithStartURLs("https://ruled.me/"), WithAllowedDomains("example.com"), rules),
			wantErr: ErrDisallowedDomain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.site.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSiteSeeds(t *testing.T) {
	recipe := Terminal("recipe", `/recipe/`, "")
	site := NewSite(
		WithStartURLs("https://example.com/recipes/", "https://example.com/recipe/featured/"),
		WithRules(recipe, Traverse("category", `/\w+/$`, "")),
	)

	seeds := site.Seeds()
	assert.Len(t, seeds, 2)
	for _, s := range seeds {
		assert.Equal(t, int64(0), s.Depth)
		assert.Same(t, site, s.Site)
		assert.True(t, s.Follow())
	}
	assert.False(t, seeds[0].Terminal())
	assert.Same(t, recipe, seeds[1].Rule)
	assert.True(t, seeds[1].Terminal())
}

func TestSiteWith(t *testing.T) {
	base := NewSite(WithName("base"), WithWorkers(2))
	derived := base.With(WithWorkers(8))

	assert.Equal(t, 2, base.Workers)
	assert.Equal(t, 8, derived.Workers)
	assert.Equal(t, "base", derived.Name)
}
