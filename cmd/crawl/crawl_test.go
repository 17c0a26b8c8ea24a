package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ketohub/crawler/archive"
	"github.com/ketohub/crawler/engine"
	"github.com/ketohub/crawler/spider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const configTemplate = `
logLevel = "debug"

[storage]
root = %q
index = "sqlite"
sqlURL = %q
batchCount = 5

[fetcher]
timeout = 2000
userAgent = "ketohub-test"

[[Sites]]
name = "example"
allowedDomains = ["127.0.0.1"]
startURLs = [%q]
workers = 2
delay = 1
image = "second"
respectRobots = true

[[Sites.Rules]]
name = "category"
pattern = '^%s/\w+/$'

[[Sites.Rules]]
name = "recipe"
pattern = '^%s/recipe/[\w-]+/$'
role = "terminal"

[[Sites]]
name = "ruled-me"
enabled = false
`

func writeConfig(t *testing.T, base string) string {
	dir := t.TempDir()
	quoted := regexp.QuoteMeta(base)
	content := fmt.Sprintf(configTemplate,
		filepath.Join(dir, "archive"),
		filepath.Join(dir, "index.db"),
		base+"/",
		quoted, quoted)

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeConfig(t, "http://127.0.0.1:8080")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "sqlite", s.Index)
	assert.Equal(t, 5, s.BatchCount)
	assert.Equal(t, 2*time.Second, s.Timeout)
	assert.Equal(t, "ketohub-test", s.UserAgent)
	assert.Empty(t, s.Proxy)

	require.Len(t, s.Sites, 2)
	assert.Equal(t, "example", s.Sites[0].Name)
	assert.Equal(t, []string{"127.0.0.1"}, s.Sites[0].AllowedDomains)
	assert.Equal(t, int64(1), s.Sites[0].Delay)
	require.Len(t, s.Sites[0].Rules, 2)
	assert.Equal(t, "terminal", s.Sites[0].Rules[1].Role)
	require.NotNil(t, s.Sites[1].Enabled)
	assert.False(t, *s.Sites[1].Enabled)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestCrawl(t *testing.T) {
	var privateHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<a href="/salads/">salads</a><a href="/private/">private</a>`)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ketohub-test", r.UserAgent())
		fmt.Fprint(w, "User-agent: ketohub-test\nDisallow: /private/\n")
	})
	mux.HandleFunc("/private/", func(w http.ResponseWriter, r *http.Request) {
		privateHits.Add(1)
	})
	mux.HandleFunc("/salads/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/recipe/cilantro-dressing/">dressing</a>`)
	})
	mux.HandleFunc("/recipe/cilantro-dressing/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ketohub-test", r.UserAgent())
		fmt.Fprint(w, `<img src="/logo.png"><img src="/dressing.png">`)
	})
	mux.HandleFunc("/dressing.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg, err := LoadSettings(writeConfig(t, srv.URL))
	require.NoError(t, err)

	require.NoError(t, crawl(context.Background(), zap.NewNop(), cfg, nil))

	keys, err := filepath.Glob(filepath.Join(cfg.StorageRoot, "*", "*", "127-0-0-1-recipe-cilantro-dressing"))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.FileExists(t, filepath.Join(keys[0], archive.MetadataFile))
	assert.FileExists(t, filepath.Join(keys[0], archive.RecipeFile))
	assert.FileExists(t, filepath.Join(keys[0], archive.MainImageBase+".png"))
	assert.FileExists(t, cfg.SQLURL)
	assert.Zero(t, privateHits.Load())
}

func TestRobotsFactory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /all/\n\nUser-agent: ketohub-test\nDisallow: /named/\n")
	}))
	defer srv.Close()

	cfg, err := LoadSettings(writeConfig(t, srv.URL))
	require.NoError(t, err)

	a := &spider.Site{Options: spider.Options{Name: "a", Timeout: time.Second}}
	b := &spider.Site{Options: spider.Options{Name: "b"}}

	tests := []struct {
		name      string
		userAgent string
		allowed   map[string]bool
	}{
		{
			name:      "configured agent",
			userAgent: "ketohub-test",
			allowed:   map[string]bool{"/named/x": false, "/all/x": true},
		},
		{
			name:      "random browser agent",
			userAgent: "",
			allowed:   map[string]bool{"/named/x": true, "/all/x": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := *cfg
			settings.UserAgent = tt.userAgent
			factory := robotsFactory(&settings, zap.NewNop())

			checkA, checkB := factory(a), factory(b)
			assert.NotSame(t, checkA, checkB)

			for path, want := range tt.allowed {
				assert.Equal(t, want, checkA.Allowed(context.Background(), srv.URL+path), path)
				assert.Equal(t, want, checkB.Allowed(context.Background(), srv.URL+path), path)
			}
		})
	}
}

func TestCrawlConfigErrors(t *testing.T) {
	cfg, err := LoadSettings(writeConfig(t, "http://127.0.0.1:8080"))
	require.NoError(t, err)

	noRoot := *cfg
	noRoot.StorageRoot = ""
	assert.ErrorIs(t, crawl(context.Background(), zap.NewNop(), &noRoot, nil), archive.ErrMissingStorageRoot)

	noSites := *cfg
	noSites.Sites = noSites.Sites[1:]
	assert.ErrorIs(t, crawl(context.Background(), zap.NewNop(), &noSites, nil), engine.ErrNoSites)

	assert.Error(t, crawl(context.Background(), zap.NewNop(), cfg, []string{"unknown"}))

	badIndex := *cfg
	badIndex.Index = "postgres"
	assert.Error(t, crawl(context.Background(), zap.NewNop(), &badIndex, nil))
}
