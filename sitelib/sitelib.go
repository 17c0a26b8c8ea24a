package sitelib

import (
	"fmt"
	"sort"

	"github.com/ketohub/crawler/sitelib/ketoconnect"
	"github.com/ketohub/crawler/sitelib/ruledme"
	"github.com/ketohub/crawler/spider"
)

// Store is the registry of built-in site profiles.
var Store = &siteStore{
	List: []*spider.Site{},
	Hash: map[string]*spider.Site{},
}

func init() {
	Store.Add(ketoconnect.Site)
	Store.Add(ruledme.Site)
}

type siteStore struct {
	List []*spider.Site
	Hash map[string]*spider.Site
}

func (s *siteStore) Add(site *spider.Site) {
	if _, ok := s.Hash[site.Name]; !ok {
		s.List = append(s.List, site)
	}
	s.Hash[site.Name] = site
}

func (s *siteStore) Get(name string) (*spider.Site, bool) {
	site, ok := s.Hash[name]

	return site, ok
}

func (s *siteStore) Names() []string {
	names := make([]string, 0, len(s.Hash))
	for name := range s.Hash {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Filter keeps the sites whose names are listed, in the order of sites. An
// empty list keeps every site.
func Filter(sites []*spider.Site, names ...string) ([]*spider.Site, error) {
	if len(names) == 0 {
		return sites, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var out []*spider.Site
	for _, s := range sites {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}

	for n := range want {
		return nil, fmt.Errorf("unknown site %q", n)
	}

	return out, nil
}
