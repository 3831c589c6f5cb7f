package isbndb

// Book is an ISBNdb book record.
type Book struct {
	Title         string   `json:"title"`
	TitleLong     string   `json:"title_long"`
	ISBN          string   `json:"isbn"`
	ISBN13        string   `json:"isbn13"`
	Publisher     string   `json:"publisher"`
	DatePublished string   `json:"date_published"`
	Authors       []string `json:"authors"`
	Edition       string   `json:"edition"`
	Pages         int      `json:"pages"`
}

type bookResponse struct {
	Book Book `json:"book"`
}

type searchResponse struct {
	Total int    `json:"total"`
	Books []Book `json:"books"`
}
