package crossref

// Work is a CrossRef work record.
type Work struct {
	DOI               string    `json:"DOI"`
	Type              string    `json:"type"`
	Title             []string  `json:"title"`
	ContainerTitle    []string  `json:"container-title"`
	Author            []Contrib `json:"author"`
	Editor            []Contrib `json:"editor"`
	Issued            DateParts `json:"issued"`
	PublishedPrint    DateParts `json:"published-print"`
	Volume            string    `json:"volume"`
	Issue             string    `json:"issue"`
	Page              string    `json:"page"`
	Publisher         string    `json:"publisher"`
	PublisherLocation string    `json:"publisher-location"`
	ISBN              []string  `json:"ISBN"`
	URL               string    `json:"URL"`
	Score             float64   `json:"score"`
}

// Contrib is an author or editor.
type Contrib struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Suffix string `json:"suffix"`
	Name   string `json:"name"` // organizations
}

// DateParts is CrossRef's [[year, month, day]] date encoding.
type DateParts struct {
	Parts [][]int `json:"date-parts"`
}

type workResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

type listResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int    `json:"total-results"`
		Items        []Work `json:"items"`
	} `json:"message"`
}
