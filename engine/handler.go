package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ketohub/crawler/archive"
	"github.com/ketohub/crawler/spider"
	"go.uber.org/zap"
)

// handleRecipe archives a terminal page: its HTML as fetched, its main
// image when one can be found and finally its metadata. A failed write
// removes the partial record. Archiving the same page twice overwrites the
// record with identical content.
func (s *siteCrawl) handleRecipe(ctx context.Context, page *spider.Context) error {
	key, err := spider.KeyFromURL(page.Req.URL)
	if err != nil {
		return fmt.Errorf("derive recipe key: %w", err)
	}

	imageURL, image, contentType := s.mainImage(ctx, page)

	if err := s.Archiver.SaveRecipeHTML(key, page.Resp.Raw); err != nil {
		return s.discard(key, err)
	}

	if image != nil {
		if err := s.Archiver.SaveMainImage(key, image, contentType, imageURL); err != nil {
			s.logger.Warn("save main image failed", zap.String("key", key), zap.Error(err))
			imageURL = ""
		}
	}

	meta := archive.Metadata{
		URL:       page.Req.URL,
		Referer:   page.Req.Referer,
		Site:      s.site.Name,
		RunID:     s.RunID,
		ImageURL:  imageURL,
		FetchedAt: page.Resp.FetchedAt,
	}
	if err := s.Archiver.SaveMetadata(key, meta); err != nil {
		return s.discard(key, err)
	}

	s.archived.Add(1)
	if s.Metrics != nil {
		s.Metrics.Archived.WithLabelValues(s.site.Name).Inc()
	}
	s.logger.Info("recipe archived", zap.String("key", key), zap.String("url", page.Req.URL))

	cell := page.Output(key, s.RunID, imageURL, s.Archiver.KeyDir(key))
	if err := s.Storage.Save(cell); err != nil {
		s.logger.Error("index recipe failed", zap.String("key", key), zap.Error(err))
	}

	return nil
}

// mainImage locates and downloads the main image of page. A recipe without
// one is archived anyway, so failures are only logged.
func (s *siteCrawl) mainImage(ctx context.Context, page *spider.Context) (imageURL string, data []byte, contentType string) {
	if _, ok := s.site.Image.(spider.NoImage); ok || s.site.Image == nil {
		return "", nil, ""
	}

	src, err := s.site.Image.Locate(page.Doc)
	if err != nil {
		if errors.Is(err, spider.ErrImageNotFound) {
			s.imagesMissing.Add(1)
			if s.Metrics != nil {
				s.Metrics.ImagesMissing.WithLabelValues(s.site.Name).Inc()
			}
			s.logger.Warn("recipe image not found", zap.String("url", page.Req.URL))
			return "", nil, ""
		}
		s.logger.Warn("locate recipe image failed", zap.String("url", page.Req.URL), zap.Error(err))
		return "", nil, ""
	}

	imageURL, err = page.Doc.Resolve(src)
	if err != nil {
		s.logger.Warn("bad recipe image url", zap.String("src", src), zap.Error(err))
		return "", nil, ""
	}

	req := &spider.Request{
		Site:    s.site,
		URL:     imageURL,
		Referer: page.Req.URL,
		Depth:   page.Req.Depth,
	}
	resp, err := s.fetch(ctx, req)
	if err != nil {
		s.logger.Warn("fetch recipe image failed", zap.String("image_url", imageURL), zap.Error(err))
		return "", nil, ""
	}

	return imageURL, resp.Raw, resp.ContentType
}

// discard drops a partially written record so that no key directory exists
// without both its HTML and its metadata.
func (s *siteCrawl) discard(key string, err error) error {
	if rerr := s.Archiver.Remove(key); rerr != nil {
		s.logger.Warn("remove partial record failed", zap.String("key", key), zap.Error(rerr))
	}

	return err
}
