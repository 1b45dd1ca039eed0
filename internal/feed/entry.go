package feed

import (
	"strings"
	"time"
)

// httpPrefix marks a GUID that doubles as a permalink.
const httpPrefix = "http"

// ImageKind tags the shape an image-like entry field arrived in.
type ImageKind int

const (
	ImageNone ImageKind = iota
	ImageString
	ImageObject
	ImageList
)

// ImageRef is one object-shaped image value.
type ImageRef struct {
	URL string
}

// ImageField is a tagged union over the three shapes feeds use for image
// fields: a bare string, a single object, or a list of objects.
type ImageField struct {
	Kind   ImageKind
	Value  string
	Object ImageRef
	List   []ImageRef
}

// StringImage wraps a bare URL string.
func StringImage(url string) ImageField {
	if url == "" {
		return ImageField{}
	}
	return ImageField{Kind: ImageString, Value: url}
}

// ObjectImage wraps a single image object.
func ObjectImage(ref ImageRef) ImageField {
	return ImageField{Kind: ImageObject, Object: ref}
}

// ListImage wraps a list of image objects.
func ListImage(refs []ImageRef) ImageField {
	if len(refs) == 0 {
		return ImageField{}
	}
	return ImageField{Kind: ImageList, List: refs}
}

// URL returns the field's URL whatever its shape. For lists only the first
// element is considered.
func (f ImageField) URL() string {
	switch f.Kind {
	case ImageString:
		return strings.TrimSpace(f.Value)
	case ImageObject:
		return strings.TrimSpace(f.Object.URL)
	case ImageList:
		return strings.TrimSpace(f.List[0].URL)
	default:
		return ""
	}
}

// MediaObject is a media:content or media:thumbnail element.
type MediaObject struct {
	URL    string
	Medium string
	Type   string
}

// Enclosure is an RSS enclosure or Atom enclosure link.
type Enclosure struct {
	URL  string
	Type string
}

// RawEntry is one parsed feed item before normalization. It lives only
// while its feed is being processed.
type RawEntry struct {
	Title           string
	Link            string
	GUID            string
	Description     string
	Content         string
	Published       string
	PublishedParsed *time.Time
	Author          string
	Creator         string

	MediaContent    []MediaObject
	Enclosures      []Enclosure
	MediaThumbnails []MediaObject

	Image          ImageField
	ITunesImage    ImageField
	MediaThumbnail ImageField
}

// CanonicalLink returns the entry permalink, falling back to a GUID that is
// itself an http(s) URL.
func (e *RawEntry) CanonicalLink() string {
	if link := strings.TrimSpace(e.Link); link != "" {
		return link
	}

	if guid := strings.TrimSpace(e.GUID); strings.HasPrefix(guid, httpPrefix) {
		return guid
	}

	return ""
}

// Body returns the structured content when present, otherwise the summary.
func (e *RawEntry) Body() string {
	if e.Content != "" {
		return e.Content
	}
	return e.Description
}

// Document is a parsed feed. Malformed is set when the raw bytes had to be
// repaired before they parsed; Warning then carries the original parse error.
type Document struct {
	Title     string
	Link      string
	Entries   []*RawEntry
	Malformed bool
	Warning   string
}
