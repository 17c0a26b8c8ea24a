package spider

import (
	"errors"
	"strings"
)

var ErrImageNotFound = errors.New("recipe image not found")

// ImageLocator finds the primary image of a recipe page.
type ImageLocator interface {
	Locate(doc *Document) (string, error)
}

// NthImage picks the src of the Nth <img> on the page, counting from zero.
// Pages whose recipe photo follows decorative images use a higher index.
type NthImage int

const (
	FirstImage  NthImage = 0
	SecondImage NthImage = 1
)

func (n NthImage) Locate(doc *Document) (string, error) {
	imgs := doc.Select("img")
	if int(n) < 0 || imgs.Length() <= int(n) {
		return "", ErrImageNotFound
	}

	src, ok := imgs.Eq(int(n)).Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return "", ErrImageNotFound
	}

	return strings.TrimSpace(src), nil
}

// NoImage is used by sites whose recipes are archived without an image.
type NoImage struct{}

func (NoImage) Locate(*Document) (string, error) {
	return "", ErrImageNotFound
}
