package scraper

import (
	"strings"

	"github.com/mmcdole/gofeed"
)

// resolveItemImage finds the best image URL for a feed item, trying each
// location in a fixed order and returning the first hit:
//
//  1. media:content with medium="image", its url attribute
//  2. media:thumbnail nested inside a media:content element
//  3. media:thumbnail at the item level
//  4. an enclosure whose type is image/*
//
// Returns "" when the item carries no usable image; that is not an error.
func resolveItemImage(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if ok {
		for _, content := range media["content"] {
			if content.Attrs["medium"] != "image" {
				continue
			}
			if url := content.Attrs["url"]; url != "" {
				return url
			}
		}
		for _, content := range media["content"] {
			for _, thumb := range content.Children["thumbnail"] {
				if url := thumb.Attrs["url"]; url != "" {
					return url
				}
			}
		}
		for _, thumb := range media["thumbnail"] {
			if url := thumb.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}

	return ""
}
