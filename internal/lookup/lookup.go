// Package lookup assembles the lookup stage from the configured services.
package lookup

import (
	"io"
	"log/slog"

	"github.com/matsen/citeflow/internal/apiclient"
	"github.com/matsen/citeflow/internal/config"
	"github.com/matsen/citeflow/internal/crossref"
	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/isbndb"
	"github.com/matsen/citeflow/internal/pubmed"
	"github.com/matsen/citeflow/internal/s2"
	"github.com/matsen/citeflow/internal/worldcat"
)

// ServiceIDs lists the lookup filter ids in registration order.
var ServiceIDs = []string{crossref.FilterID, pubmed.FilterID, worldcat.FilterID, isbndb.PathID, s2.FilterID}

// DefaultServices returns the enabled lookup filters in registration order:
// CrossRef, PubMed, WorldCat, the ISBNdb identifier path and Semantic
// Scholar. Services that need a key are omitted when none is configured.
// opts are applied to every service client.
func DefaultServices(cfg *config.Config, logger *slog.Logger, opts ...apiclient.Option) []filter.Filter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	common := append([]apiclient.Option{apiclient.WithLogger(logger)}, opts...)
	with := func(extra ...apiclient.Option) []apiclient.Option {
		return append(append([]apiclient.Option(nil), extra...), common...)
	}

	var out []filter.Filter
	add := func(id string, f func() filter.Filter) {
		if cfg.ServiceEnabled(id) {
			out = append(out, f())
		}
	}

	add(crossref.FilterID, func() filter.Filter {
		return crossref.NewFilter(crossref.NewClient(with(crossref.WithMailto(cfg.CrossRefMailto))...))
	})
	add(pubmed.FilterID, func() filter.Filter {
		return pubmed.NewFilter(pubmed.NewClient(cfg.NCBIAPIKey, with()...))
	})
	if cfg.WorldCatWSKey != "" {
		add(worldcat.FilterID, func() filter.Filter {
			return worldcat.NewFilter(worldcat.NewClient(cfg.WorldCatWSKey, with()...))
		})
	} else {
		logger.Debug("lookup service disabled: no key", "service", worldcat.FilterID)
	}
	if cfg.ISBNdbAPIKey != "" {
		add(isbndb.PathID, func() filter.Filter {
			return isbndb.NewIdentifierPath(isbndb.NewClient(cfg.ISBNdbAPIKey, with()...)).WithLogger(logger)
		})
	} else {
		logger.Debug("lookup service disabled: no key", "service", isbndb.PathID)
	}
	add(s2.FilterID, func() filter.Filter {
		return s2.NewFilter(s2.NewClient(with(s2.WithAPIKey(cfg.S2APIKey))...))
	})
	return out
}
