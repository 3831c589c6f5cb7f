package metadata

// Schema names.
const (
	CitationSchemaName = "nlm-citation"
	NameSchemaName     = "nlm-name"
)

// Citation schema property names.
const (
	PropGenre         = "genre"
	PropAuthors       = "person-group[author]"
	PropEditors       = "person-group[editor]"
	PropArticleTitle  = "article-title"
	PropSource        = "source"
	PropDate          = "date"
	PropAccessDate    = "access-date"
	PropVolume        = "volume"
	PropIssue         = "issue"
	PropFirstPage     = "fpage"
	PropLastPage      = "lpage"
	PropEdition       = "edition"
	PropSeries        = "series"
	PropSize          = "size"
	PropConfName      = "conf-name"
	PropPublisherName = "publisher-name"
	PropPublisherLoc  = "publisher-loc"
	PropDOI           = "pub-id[doi]"
	PropPMID          = "pub-id[pmid]"
	PropISBN          = "pub-id[isbn]"
	PropPublisherID   = "pub-id[publisher-id]"
	PropURI           = "uri"
	PropComment       = "comment"
	PropAnnotation    = "annotation"
)

// Name schema property names.
const (
	PropGivenNames = "given-names"
	PropSurname    = "surname"
	PropPrefix     = "prefix"
	PropSuffix     = "suffix"
)

// Genres of the citation schema vocabulary.
const (
	GenreJournal  = "journal"
	GenreBook     = "book"
	GenreChapter  = "chapter"
	GenreConfProc = "conf-proc"
	GenreThesis   = "thesis"
	GenreWeb      = "web"
	GenreUnknown  = "unknown"
)

// NameSchema describes a person name.
var NameSchema = MustSchema(NameSchemaName,
	Property{Name: PropGivenNames, Cardinality: Many, Kind: KindString},
	Property{Name: PropSurname, Cardinality: One, Kind: KindString},
	Property{Name: PropPrefix, Cardinality: One, Kind: KindString},
	Property{Name: PropSuffix, Cardinality: One, Kind: KindString},
)

// CitationSchema is the NLM-like citation schema used throughout the pipeline.
var CitationSchema = MustSchema(CitationSchemaName,
	Property{Name: PropGenre, Cardinality: One, Kind: KindVocabulary, Vocabulary: []string{
		GenreJournal, GenreBook, GenreChapter, GenreConfProc, GenreThesis, GenreWeb, GenreUnknown,
	}},
	Property{Name: PropAuthors, Cardinality: Many, Kind: KindComposite, Composite: NameSchemaName},
	Property{Name: PropEditors, Cardinality: Many, Kind: KindComposite, Composite: NameSchemaName},
	Property{Name: PropArticleTitle, Cardinality: One, Translatable: true, Kind: KindString},
	Property{Name: PropSource, Cardinality: One, Translatable: true, Kind: KindString},
	Property{Name: PropDate, Cardinality: One, Kind: KindDate},
	Property{Name: PropAccessDate, Cardinality: One, Kind: KindDate},
	Property{Name: PropVolume, Cardinality: One, Kind: KindString},
	Property{Name: PropIssue, Cardinality: One, Kind: KindString},
	Property{Name: PropFirstPage, Cardinality: One, Kind: KindString},
	Property{Name: PropLastPage, Cardinality: One, Kind: KindString},
	Property{Name: PropEdition, Cardinality: One, Kind: KindString},
	Property{Name: PropSeries, Cardinality: One, Kind: KindString},
	Property{Name: PropSize, Cardinality: One, Kind: KindInteger},
	Property{Name: PropConfName, Cardinality: One, Translatable: true, Kind: KindString},
	Property{Name: PropPublisherName, Cardinality: One, Kind: KindString},
	Property{Name: PropPublisherLoc, Cardinality: One, Kind: KindString},
	Property{Name: PropDOI, Cardinality: One, Kind: KindString},
	Property{Name: PropPMID, Cardinality: One, Kind: KindString},
	Property{Name: PropISBN, Cardinality: One, Kind: KindString},
	Property{Name: PropPublisherID, Cardinality: One, Kind: KindString},
	Property{Name: PropURI, Cardinality: One, Kind: KindURI},
	Property{Name: PropComment, Cardinality: Many, Kind: KindString},
	Property{Name: PropAnnotation, Cardinality: Many, Kind: KindString},
)

// DefaultRegistry returns a registry with the citation and name schemas.
func DefaultRegistry() *Registry {
	return NewRegistry(CitationSchema, NameSchema)
}

// NewCitationDescription creates an empty citation description.
func NewCitationDescription() *Description {
	return NewDescription(CitationSchema, "", "")
}
