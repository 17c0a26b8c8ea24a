package spider

import "time"

// Context is a fetched page on its way through classification and
// extraction.
type Context struct {
	Req  *Request
	Resp *Response
	Doc  *Document
}

func NewContext(req *Request, resp *Response) (*Context, error) {
	u := req.URL
	if resp.URL != "" {
		u = resp.URL
	}

	doc, err := NewDocument(u, resp.Header, resp.Body)
	if err != nil {
		return nil, err
	}

	return &Context{Req: req, Resp: resp, Doc: doc}, nil
}

// Links classifies the outbound links of the page into new frontier
// entries. Links outside the site's allowed domains are dropped.
func (c *Context) Links() []*Request {
	now := time.Now()
	var reqs []*Request

	for _, l := range c.Req.Site.Rules.Classify(c.Doc) {
		if !c.Req.Site.Allowed(l.URL) {
			continue
		}
		reqs = append(reqs, &Request{
			Site:         c.Req.Site,
			URL:          l.URL,
			Referer:      c.Req.URL,
			Depth:        c.Req.Depth + 1,
			Rule:         l.Rule,
			DiscoveredAt: now,
		})
	}

	return reqs
}

// Output builds the index record of the page once it has been archived.
func (c *Context) Output(key, runID, imageURL, dir string) *DataCell {
	return &DataCell{
		Site:      c.Req.Site.Name,
		RunID:     runID,
		Key:       key,
		URL:       c.Req.URL,
		Referer:   c.Req.Referer,
		ImageURL:  imageURL,
		Dir:       dir,
		FetchedAt: c.Resp.FetchedAt,
	}
}
