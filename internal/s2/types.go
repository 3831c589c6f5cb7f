package s2

// Paper represents a paper from the Semantic Scholar Graph API.
type Paper struct {
	PaperID          string      `json:"paperId"`
	ExternalIDs      ExternalIDs `json:"externalIds,omitempty"`
	Title            string      `json:"title"`
	Authors          []Author    `json:"authors,omitempty"`
	Year             int         `json:"year,omitempty"`
	Venue            string      `json:"venue,omitempty"`
	PubDate          string      `json:"publicationDate,omitempty"` // YYYY-MM-DD format
	PublicationTypes []string    `json:"publicationTypes,omitempty"`
	Journal          *Journal    `json:"journal,omitempty"`
	URL              string      `json:"url,omitempty"`
	MatchScore       float64     `json:"matchScore,omitempty"`
}

// ExternalIDs contains various external identifiers for a paper.
type ExternalIDs struct {
	DOI           string `json:"DOI,omitempty"`
	ArXiv         string `json:"ArXiv,omitempty"`
	PubMed        string `json:"PubMed,omitempty"`
	PubMedCentral string `json:"PubMedCentral,omitempty"`
	CorpusID      int    `json:"CorpusId,omitempty"`
}

// Author represents an author from the Semantic Scholar API.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// Journal is the journal block of a paper record.
type Journal struct {
	Name   string `json:"name,omitempty"`
	Volume string `json:"volume,omitempty"`
	Pages  string `json:"pages,omitempty"`
}

// PaperIdentifier represents a parsed paper identifier.
type PaperIdentifier struct {
	Type  string // DOI, ARXIV, PMID, PMCID, CorpusId, S2, URL
	Value string // The identifier value
}

// String returns the S2 API format for the identifier.
func (p PaperIdentifier) String() string {
	switch p.Type {
	case "S2":
		return p.Value // Raw S2 ID doesn't need prefix
	default:
		return p.Type + ":" + p.Value
	}
}

// matchResponse is the response from the title match endpoint.
type matchResponse struct {
	Data []Paper `json:"data"`
}
