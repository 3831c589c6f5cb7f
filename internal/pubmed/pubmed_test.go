package pubmed

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

const summaryJSON = `{
  "header": {"type": "esummary", "version": "0.3"},
  "result": {
    "uids": ["23903748"],
    "23903748": {
      "uid": "23903748",
      "pubdate": "2013 Aug 1",
      "source": "Nature",
      "authors": [
        {"name": "Kucsko G", "authtype": "Author"},
        {"name": "Maurer PC", "authtype": "Author"},
        {"name": "Lukin MD", "authtype": "Author"},
        {"name": "NV Consortium", "authtype": "CollectiveName"}
      ],
      "title": "Nanometre-scale thermometry in a living cell.",
      "volume": "500",
      "issue": "7460",
      "pages": "54-8",
      "articleids": [
        {"idtype": "pubmed", "value": "23903748"},
        {"idtype": "doi", "value": "10.1038/nature12373"}
      ]
    }
  }
}`

func newServer(t *testing.T, citmatch string, calls *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, r.URL.Path)
		switch r.URL.Path {
		case "/api/citmatch":
			if r.URL.Query().Get("method") != "heuristic" {
				t.Errorf("method = %q", r.URL.Query().Get("method"))
			}
			w.Write([]byte(citmatch))
		case "/esummary.fcgi":
			if r.URL.Query().Get("id") != "23903748" || r.URL.Query().Get("api_key") != "key" {
				t.Errorf("esummary query = %q", r.URL.RawQuery)
			}
			w.Write([]byte(summaryJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func journalCitation() *metadata.Description {
	d := metadata.NewCitationDescription()
	_ = d.AddStatement(metadata.PropArticleTitle, "Nanometre-scale thermometry in a living cell", metadata.DefaultLocale)
	_ = d.AddStatement(metadata.PropSource, "Nature", metadata.DefaultLocale)
	_ = d.AddStatement(metadata.PropAuthors, metadata.NewPersonName([]string{"G."}, "Kucsko", ""))
	_ = d.AddStatement(metadata.PropAuthors, metadata.NewPersonName([]string{"M.", "D."}, "Lukin", ""))
	_ = d.AddStatement(metadata.PropDate, "2013-08")
	return d
}

func TestFilter_CitMatchThenSummary(t *testing.T) {
	var calls []string
	srv := newServer(t, `{"version":"1.0","operation":"citmatch","success":true,"result":{"count":1,"type":"uids","uids":[{"pubmed":"23903748"}]}}`, &calls)
	f := NewFilter(NewClient("key", apiclient.WithBaseURL(srv.URL), apiclient.WithRateLimit(100)))

	out, err := f.Execute(context.Background(), journalCitation())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(calls) != 2 || calls[0] != "/api/citmatch" || calls[1] != "/esummary.fcgi" {
		t.Errorf("calls = %v", calls)
	}

	d := out.(*metadata.Description)
	want := map[string]string{
		metadata.PropArticleTitle: "Nanometre-scale thermometry in a living cell",
		metadata.PropSource:       "Nature",
		metadata.PropDate:         "2013-08-01",
		metadata.PropVolume:       "500",
		metadata.PropIssue:        "7460",
		metadata.PropFirstPage:    "54",
		metadata.PropLastPage:     "58",
		metadata.PropPMID:         "23903748",
		metadata.PropDOI:          "10.1038/nature12373",
	}
	for prop, v := range want {
		if got := d.String(prop); got != v {
			t.Errorf("%s = %q, want %q", prop, got, v)
		}
	}
	if got := len(d.Composites(metadata.PropAuthors)); got != 3 {
		t.Errorf("got %d authors, want 3 (collective names skipped)", got)
	}
}

func TestFilter_KnownPMIDSkipsCitMatch(t *testing.T) {
	var calls []string
	srv := newServer(t, "", &calls)
	f := NewFilter(NewClient("key", apiclient.WithBaseURL(srv.URL), apiclient.WithRateLimit(100)))

	in := metadata.NewCitationDescription()
	_ = in.AddStatement(metadata.PropPMID, "23903748")
	if _, err := f.Execute(context.Background(), in); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(calls) != 1 || calls[0] != "/esummary.fcgi" {
		t.Errorf("calls = %v, want only esummary", calls)
	}
}

func TestFilter_NoMatch(t *testing.T) {
	var calls []string
	srv := newServer(t, `{"success":true,"result":{"count":0,"uids":[]}}`, &calls)
	f := NewFilter(NewClient("key", apiclient.WithBaseURL(srv.URL), apiclient.WithRateLimit(100)))

	_, err := f.Execute(context.Background(), journalCitation())
	var execErr *filter.ExecutionError
	if !errors.As(err, &execErr) || !apiclient.IsNotFound(err) {
		t.Fatalf("error = %v, want not-found ExecutionError", err)
	}
	if len(calls) != 1 {
		t.Errorf("calls = %v, want citmatch only", calls)
	}
}

func TestSupports(t *testing.T) {
	book := journalCitation()
	_ = book.AddStatement(metadata.PropGenre, metadata.GenreBook)

	titleOnly := metadata.NewCitationDescription()
	_ = titleOnly.AddStatement(metadata.PropArticleTitle, "T", metadata.DefaultLocale)

	tests := []struct {
		name string
		d    *metadata.Description
		want bool
	}{
		{"journal citation", journalCitation(), true},
		{"book", book, false},
		{"title only", titleOnly, false},
		{"empty", metadata.NewCitationDescription(), false},
	}
	f := NewFilter(NewClient(""))
	for _, tt := range tests {
		if got := f.Supports(tt.d); got != tt.want {
			t.Errorf("%s: Supports = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCitationText(t *testing.T) {
	d := journalCitation()
	_ = d.AddStatement(metadata.PropVolume, "500")
	want := "Kucsko G Lukin MD Nanometre-scale thermometry in a living cell Nature 500 2013"
	if got := CitationText(d); got != want {
		t.Errorf("CitationText = %q, want %q", got, want)
	}
}
