package s2

import (
	"net/url"
	"regexp"
	"strings"
)

// idTypes maps lower-cased identifier prefixes to Semantic Scholar id types.
var idTypes = map[string]string{
	"doi":      "DOI",
	"arxiv":    "ARXIV",
	"pmid":     "PMID",
	"pmcid":    "PMCID",
	"corpusid": "CorpusId",
	"mag":      "MAG",
	"acl":      "ACL",
}

var (
	// s2IDPattern matches a raw 40-character hex paper id.
	s2IDPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	arxivPath   = regexp.MustCompile(`^/(?:abs|pdf)/([^/]+?)(?:v\d+)?(?:\.pdf)?$`)
	s2PaperPath = regexp.MustCompile(`/paper/(?:[^/]+/)?([0-9a-fA-F]{40})$`)
)

// ParsePaperID parses "TYPE:value" identifiers such as DOI:10.1038/nature12373,
// arXiv:2106.15928 or CorpusId:215416146, and raw 40-character paper ids.
func ParsePaperID(id string) (PaperIdentifier, bool) {
	id = strings.TrimSpace(id)
	if s2IDPattern.MatchString(id) {
		return PaperIdentifier{Type: "S2", Value: id}, true
	}
	prefix, value, ok := strings.Cut(id, ":")
	if !ok || value == "" {
		return PaperIdentifier{}, false
	}
	typ, ok := idTypes[strings.ToLower(prefix)]
	if !ok {
		return PaperIdentifier{}, false
	}
	return PaperIdentifier{Type: typ, Value: strings.TrimSpace(value)}, true
}

// PaperIDFromURI recognizes arXiv and Semantic Scholar paper URLs.
func PaperIDFromURI(uri string) (PaperIdentifier, bool) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return PaperIdentifier{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "arxiv.org":
		if m := arxivPath.FindStringSubmatch(u.Path); m != nil {
			return PaperIdentifier{Type: "ARXIV", Value: m[1]}, true
		}
	case "semanticscholar.org", "api.semanticscholar.org":
		if m := s2PaperPath.FindStringSubmatch(u.Path); m != nil {
			return PaperIdentifier{Type: "S2", Value: m[1]}, true
		}
	}
	return PaperIdentifier{}, false
}
