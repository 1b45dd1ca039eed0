package imageresolver

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ScanDocument searches a parsed page for its lead image: Open Graph and
// Twitter card meta tags first, then pub's markup patterns when pub is not
// nil. Protocol-relative matches get https; other relative matches are
// made absolute against pageURL. Every match must pass IsValidImage.
func ScanDocument(sel *goquery.Selection, pageURL string, pub *Publisher) string {
	patterns := metaPatterns
	if pub != nil {
		patterns = append(append([]Pattern{}, metaPatterns...), pub.Patterns...)
	}

	for _, p := range patterns {
		if found := scanPattern(sel, pageURL, p); found != "" {
			return found
		}
	}

	return ""
}

func scanPattern(sel *goquery.Selection, pageURL string, p Pattern) string {
	var found string
	sel.Find(p.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		value, ok := s.Attr(p.Attr)
		if !ok {
			return true
		}

		// srcset and friends carry "url descriptor" pairs.
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return true
		}

		ref := strings.TrimSuffix(fields[0], ",")
		if strings.HasPrefix(ref, "//") {
			ref = "https:" + ref
		}

		abs, ok := ResolveURL(pageURL, ref)
		if !ok || !IsValidImage(abs) {
			return true
		}

		found = abs
		return false
	})
	return found
}
