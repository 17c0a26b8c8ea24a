package crawl

import (
	"time"

	"github.com/go-micro/plugins/v4/config/encoder/toml"
	"github.com/ketohub/crawler/sitelib"
	"go-micro.dev/v4/config"
	"go-micro.dev/v4/config/reader"
	"go-micro.dev/v4/config/reader/json"
	"go-micro.dev/v4/config/source"
	"go-micro.dev/v4/config/source/file"
)

// Settings is the content of config.toml.
type Settings struct {
	LogLevel string
	LogFile  string

	StorageRoot string
	Index       string // empty, mysql or sqlite
	SQLURL      string
	BatchCount  int

	Timeout   time.Duration
	Proxy     []string
	UserAgent string

	MetricsListen string

	Sites []sitelib.SiteConfig
}

func LoadSettings(path string) (*Settings, error) {
	enc := toml.NewEncoder()
	cfg, err := config.NewConfig(config.WithReader(json.NewReader(reader.WithEncoder(enc))))
	if err != nil {
		return nil, err
	}

	err = cfg.Load(file.NewSource(
		file.WithPath(path),
		source.WithEncoder(enc),
	))
	if err != nil {
		return nil, err
	}

	s := &Settings{
		LogLevel:      cfg.Get("logLevel").String("INFO"),
		LogFile:       cfg.Get("logFile").String(""),
		StorageRoot:   cfg.Get("storage", "root").String(""),
		Index:         cfg.Get("storage", "index").String("empty"),
		SQLURL:        cfg.Get("storage", "sqlURL").String(""),
		BatchCount:    cfg.Get("storage", "batchCount").Int(20),
		Timeout:       time.Duration(cfg.Get("fetcher", "timeout").Int(10000)) * time.Millisecond,
		Proxy:         cfg.Get("fetcher", "proxy").StringSlice([]string{}),
		UserAgent:     cfg.Get("fetcher", "userAgent").String(""),
		MetricsListen: cfg.Get("metrics", "listen").String(""),
	}

	if err := cfg.Get("Sites").Scan(&s.Sites); err != nil {
		return nil, err
	}

	return s, nil
}
