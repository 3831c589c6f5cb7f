package worldcat

import "encoding/xml"

// Feed is an OpenSearch Atom response.
type Feed struct {
	XMLName      xml.Name `xml:"http://www.w3.org/2005/Atom feed"`
	TotalResults int      `xml:"totalResults"`
	Entries      []Entry  `xml:"entry"`
}

// Entry is one catalog record. Identifiers, publisher and date come from the
// Dublin Core namespace.
type Entry struct {
	Title       string   `xml:"title"`
	Authors     []string `xml:"author>name"`
	ID          string   `xml:"id"`
	Link        Link     `xml:"link"`
	Identifiers []string `xml:"identifier"`
	Publisher   string   `xml:"publisher"`
	Date        string   `xml:"date"`
}

// Link is an Atom link element.
type Link struct {
	Href string `xml:"href,attr"`
}
