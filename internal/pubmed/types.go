package pubmed

import "encoding/json"

type citMatchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Count int `json:"count"`
		UIDs  []struct {
			PubMed string `json:"pubmed"`
		} `json:"uids"`
	} `json:"result"`
}

// summaryResponse keys records by PMID next to a "uids" list.
type summaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// Summary is one esummary document.
type Summary struct {
	UID             string      `json:"uid"`
	PubDate         string      `json:"pubdate"`
	Source          string      `json:"source"`
	FullJournalName string      `json:"fulljournalname"`
	Authors         []Author    `json:"authors"`
	Title           string      `json:"title"`
	Volume          string      `json:"volume"`
	Issue           string      `json:"issue"`
	Pages           string      `json:"pages"`
	ArticleIDs      []ArticleID `json:"articleids"`
	PubType         []string    `json:"pubtype"`
	Error           string      `json:"error"`
}

// Author is an esummary author entry ("Smith JA").
type Author struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

// ArticleID is an identifier attached to a record.
type ArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}
