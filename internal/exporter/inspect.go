package exporter

import (
	"encoding/xml"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"
	"mvdan.cc/xurls/v2"
)

var urlExtractor = xurls.Strict()

var fetchableSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"file":  true,
}

// ExternalRefs lists remote resources referenced from href/src attributes or
// url(...) values. The renderer never fetches them, so they draw as empty.
func ExternalRefs(markup string) []string {
	decoder := xml.NewDecoder(strings.NewReader(markup))
	decoder.Strict = false
	decoder.CharsetReader = charset.NewReaderLabel

	var refs []string
	seen := make(map[string]bool)

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		for _, attr := range se.Attr {
			if !isReferenceAttr(attr) {
				continue
			}
			for _, found := range urlExtractor.FindAllString(attr.Value, -1) {
				u, err := url.Parse(found)
				if err != nil || !fetchableSchemes[strings.ToLower(u.Scheme)] {
					continue
				}
				if !seen[found] {
					seen[found] = true
					refs = append(refs, found)
				}
			}
		}
	}

	return refs
}

func isReferenceAttr(attr xml.Attr) bool {
	if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
		return false
	}
	switch attr.Name.Local {
	case "href", "src":
		return true
	}
	return strings.Contains(attr.Value, "url(")
}
