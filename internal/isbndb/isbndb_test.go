package isbndb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matsen/citeflow/internal/apiclient"
	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

const (
	searchJSON = `{"total": 2, "books": [
  {"title": "The Art of Computer Programming", "isbn13": "9780000000001", "authors": ["Someone Else"], "publisher": "Other"},
  {"title": "The Art of Computer Programming", "isbn": "0201896834", "isbn13": "9780201896831", "authors": ["Knuth, Donald E."], "publisher": "Addison-Wesley"}
]}`
	bookJSON = `{"book": {"title": "The Art of Computer Programming", "isbn": "0201896834", "isbn13": "9780201896831",
  "authors": ["Knuth, Donald E."], "publisher": "Addison-Wesley", "date_published": "1997-07-07", "edition": "3", "pages": 672}}`
)

func newTestClient(t *testing.T, calls *[]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, r.URL.Path)
		if r.Header.Get("Authorization") != "key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		switch r.URL.Path {
		case "/books/The Art of Computer Programming":
			w.Write([]byte(searchJSON))
		case "/book/9780201896831", "/book/0201896834":
			w.Write([]byte(bookJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return NewClient("key", apiclient.WithBaseURL(srv.URL), apiclient.WithRateLimit(100))
}

func knuth() *metadata.Description {
	d := metadata.NewCitationDescription()
	_ = d.AddStatement(metadata.PropGenre, metadata.GenreBook)
	_ = d.AddStatement(metadata.PropArticleTitle, "The Art of Computer Programming", metadata.DefaultLocale)
	_ = d.AddStatement(metadata.PropAuthors, metadata.NewPersonName([]string{"D.", "E."}, "Knuth", ""))
	return d
}

func TestIdentifierPath(t *testing.T) {
	var calls []string
	path := NewIdentifierPath(newTestClient(t, &calls))

	if !path.Supports(knuth()) {
		t.Fatal("path should support a titled book with an author")
	}
	out, err := path.Execute(context.Background(), knuth())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(calls) != 2 || calls[1] != "/book/9780201896831" {
		t.Errorf("calls = %v", calls)
	}

	d := out.(*metadata.Description)
	want := map[string]string{
		metadata.PropGenre:         metadata.GenreBook,
		metadata.PropISBN:          "9780201896831",
		metadata.PropPublisherName: "Addison-Wesley",
		metadata.PropDate:          "1997-07-07",
		metadata.PropEdition:       "3",
	}
	for prop, v := range want {
		if got := d.String(prop); got != v {
			t.Errorf("%s = %q, want %q", prop, got, v)
		}
	}
	if size, ok := d.Int(metadata.PropSize); !ok || size != 672 {
		t.Errorf("size = %d, %v; want 672", size, ok)
	}
}

func TestDerivation_KnownISBNSkipsSearch(t *testing.T) {
	var calls []string
	f := NewIsbnDerivationFilter(newTestClient(t, &calls))
	d := knuth()
	_ = d.AddStatement(metadata.PropISBN, "0-201-89683-4")

	out, err := f.Execute(context.Background(), d)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "0201896834" || len(calls) != 0 {
		t.Errorf("out = %v, calls = %v", out, calls)
	}
}

func TestDerivation_NoSharedAuthor(t *testing.T) {
	var calls []string
	f := NewIsbnDerivationFilter(newTestClient(t, &calls))
	d := metadata.NewCitationDescription()
	_ = d.AddStatement(metadata.PropArticleTitle, "The Art of Computer Programming", metadata.DefaultLocale)
	_ = d.AddStatement(metadata.PropAuthors, metadata.NewPersonName(nil, "Dijkstra", ""))

	_, err := f.Execute(context.Background(), d)
	var execErr *filter.ExecutionError
	if !errors.As(err, &execErr) || execErr.FilterID != DerivationID || !apiclient.IsNotFound(err) {
		t.Fatalf("error = %v, want not-found ExecutionError from %s", err, DerivationID)
	}
}

func TestDerivation_Supports(t *testing.T) {
	article := knuth()
	article.RemoveStatement(metadata.PropGenre)
	_ = article.AddStatement(metadata.PropGenre, metadata.GenreJournal)

	titleOnly := metadata.NewCitationDescription()
	_ = titleOnly.AddStatement(metadata.PropArticleTitle, "T", metadata.DefaultLocale)

	f := NewIsbnDerivationFilter(NewClient("key"))
	tests := []struct {
		name string
		d    *metadata.Description
		want bool
	}{
		{"book", knuth(), true},
		{"journal article", article, false},
		{"title only", titleOnly, false},
	}
	for _, tt := range tests {
		if got := f.Supports(tt.d); got != tt.want {
			t.Errorf("%s: Supports = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResolution_RejectsInvalidISBN(t *testing.T) {
	f := NewIsbnResolutionFilter(NewClient("key"))
	if f.Supports("0201896835") {
		t.Error("bad check digit should not be supported")
	}
	if !f.Supports("978-0-201-89683-1") {
		t.Error("hyphenated ISBN-13 should be supported")
	}
}

func TestNoKey(t *testing.T) {
	_, err := NewClient("").Book(context.Background(), "0201896834")
	if !errors.Is(err, ErrNoKey) {
		t.Errorf("error = %v, want ErrNoKey", err)
	}
}
