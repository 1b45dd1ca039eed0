// Package feed fetches and parses RSS and Atom documents into raw entries.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const (
	mediaNamespace = "media"
	mediaContent   = "content"
	mediaThumbnail = "thumbnail"
	mediaGroup     = "group"

	itemImageElement = "image"
)

var entityRef = regexp.MustCompile(`^&(?:[a-zA-Z][a-zA-Z0-9]*|#[0-9]+|#[xX][0-9a-fA-F]+);`)

// Parse parses a feed body. A body that only parses after repair is still
// returned, flagged Malformed. An error means nothing usable could be read.
func Parse(ctx context.Context, body []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err == nil {
		return newDocument(parsed), nil
	}

	repaired, retryErr := gofeed.NewParser().Parse(bytes.NewReader(sanitize(body)))
	if retryErr != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	doc := newDocument(repaired)
	doc.Malformed = true
	doc.Warning = err.Error()

	return doc, nil
}

// sanitize repairs the common defects of hand-rolled feeds: text emitted
// before the root element, control characters XML forbids, and bare
// ampersands.
func sanitize(body []byte) []byte {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if start := bytes.IndexByte(body, '<'); start > 0 {
		body = body[start:]
	}

	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c < 0x20 && c != '\t' && c != '\n' && c != '\r':
			continue
		case c == '&' && !entityRef.Match(body[i:]):
			out = append(out, "&amp;"...)
		default:
			out = append(out, c)
		}
	}

	return out
}

func newDocument(parsed *gofeed.Feed) *Document {
	doc := &Document{
		Title:   parsed.Title,
		Link:    parsed.Link,
		Entries: make([]*RawEntry, 0, len(parsed.Items)),
	}

	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		doc.Entries = append(doc.Entries, newRawEntry(item))
	}

	return doc
}

func newRawEntry(item *gofeed.Item) *RawEntry {
	entry := &RawEntry{
		Title:           item.Title,
		Link:            item.Link,
		GUID:            item.GUID,
		Description:     item.Description,
		Content:         item.Content,
		Published:       item.Published,
		PublishedParsed: item.PublishedParsed,
	}

	if entry.Published == "" {
		entry.Published = item.Updated
	}
	if entry.PublishedParsed == nil {
		entry.PublishedParsed = item.UpdatedParsed
	}

	switch {
	case item.Author != nil && item.Author.Name != "":
		entry.Author = item.Author.Name
	case len(item.Authors) > 0 && item.Authors[0] != nil:
		entry.Author = item.Authors[0].Name
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		entry.Creator = item.DublinCoreExt.Creator[0]
	}

	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		entry.Enclosures = append(entry.Enclosures, Enclosure{URL: enc.URL, Type: enc.Type})
	}

	entry.MediaContent = mediaObjects(item.Extensions, mediaContent)
	entry.MediaThumbnails = mediaObjects(item.Extensions, mediaThumbnail)

	// item.Image is derived by gofeed from media, enclosures and <img> tags in
	// the body; only an <image> element on the item itself counts here.
	entry.Image = StringImage(item.Custom[itemImageElement])
	if item.ITunesExt != nil {
		entry.ITunesImage = StringImage(item.ITunesExt.Image)
	}
	entry.MediaThumbnail = ListImage(imageRefs(entry.MediaThumbnails))

	return entry
}

// mediaObjects collects media RSS elements with the given name, including
// those nested in media:group.
func mediaObjects(exts ext.Extensions, name string) []MediaObject {
	media, ok := exts[mediaNamespace]
	if !ok {
		return nil
	}

	var objects []MediaObject
	for _, e := range media[name] {
		objects = appendMedia(objects, e)
	}
	for _, group := range media[mediaGroup] {
		for _, e := range group.Children[name] {
			objects = appendMedia(objects, e)
		}
	}

	return objects
}

func appendMedia(objects []MediaObject, e ext.Extension) []MediaObject {
	url := e.Attrs["url"]
	if url == "" {
		return objects
	}
	return append(objects, MediaObject{URL: url, Medium: e.Attrs["medium"], Type: e.Attrs["type"]})
}

func imageRefs(objects []MediaObject) []ImageRef {
	refs := make([]ImageRef, 0, len(objects))
	for _, o := range objects {
		refs = append(refs, ImageRef{URL: o.URL})
	}
	return refs
}
