// Package citation holds the Citation record and the processor that moves a
// citation through the parse and lookup stages.
package citation

import (
	"encoding/json"
	"fmt"

	"github.com/matsen/citeflow/internal/metadata"
)

// AssocKind is the association kind of a citation's working description.
const AssocKind = "citation"

// SourceAssocKind marks a retained candidate description. Its AssocID is the
// id of the filter that produced it.
const SourceAssocKind = "filter"

// Citation is one bibliographic reference attached to an owner object.
//
// ID, AssocKind, AssocID, Seq, RawText and EditedText identify the citation
// and are carried forward unchanged by every pipeline stage.
type Citation struct {
	ID         string `json:"id"`
	AssocKind  string `json:"assoc_kind"`
	AssocID    string `json:"assoc_id"`
	Seq        int    `json:"seq"`
	RawText    string `json:"raw_text"`
	EditedText string `json:"edited_text,omitempty"`
	State      State  `json:"state"`

	Description        *metadata.Description   `json:"description,omitempty"`
	SourceDescriptions []*metadata.Description `json:"source_descriptions,omitempty"`
	Errors             []string                `json:"errors,omitempty"`
}

// Text returns the text the parsers work on: the edited text when present,
// otherwise the raw text.
func (c Citation) Text() string {
	if c.EditedText != "" {
		return c.EditedText
	}
	return c.RawText
}

// Clone returns a deep copy.
func (c Citation) Clone() Citation {
	out := c
	out.Description = c.Description.Clone()
	if c.SourceDescriptions != nil {
		out.SourceDescriptions = make([]*metadata.Description, len(c.SourceDescriptions))
		for i, d := range c.SourceDescriptions {
			out.SourceDescriptions[i] = d.Clone()
		}
	}
	out.Errors = append([]string(nil), c.Errors...)
	return out
}

// citationJSON mirrors Citation with descriptions kept raw for decoding.
type citationJSON struct {
	ID                 string            `json:"id"`
	AssocKind          string            `json:"assoc_kind"`
	AssocID            string            `json:"assoc_id"`
	Seq                int               `json:"seq"`
	RawText            string            `json:"raw_text"`
	EditedText         string            `json:"edited_text,omitempty"`
	State              State             `json:"state"`
	Description        json.RawMessage   `json:"description,omitempty"`
	SourceDescriptions []json.RawMessage `json:"source_descriptions,omitempty"`
	Errors             []string          `json:"errors,omitempty"`
}

// UnmarshalJSON decodes a citation, resolving descriptions through the
// default metadata registry.
func (c *Citation) UnmarshalJSON(data []byte) error {
	var cj citationJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	reg := metadata.DefaultRegistry()

	out := Citation{
		ID:         cj.ID,
		AssocKind:  cj.AssocKind,
		AssocID:    cj.AssocID,
		Seq:        cj.Seq,
		RawText:    cj.RawText,
		EditedText: cj.EditedText,
		State:      cj.State,
		Errors:     cj.Errors,
	}
	if len(cj.Description) > 0 && string(cj.Description) != "null" {
		d, err := reg.Decode(cj.Description)
		if err != nil {
			return fmt.Errorf("citation %s description: %w", cj.ID, err)
		}
		out.Description = d
	}
	for i, raw := range cj.SourceDescriptions {
		d, err := reg.Decode(raw)
		if err != nil {
			return fmt.Errorf("citation %s source description %d: %w", cj.ID, i, err)
		}
		out.SourceDescriptions = append(out.SourceDescriptions, d)
	}
	*c = out
	return nil
}

// Repository is the persistence collaborator of the processor.
type Repository interface {
	LoadCitationsForOwner(assocKind, assocID string) ([]Citation, error)
	SaveCitation(c Citation) (string, error)
	DeleteCitation(id string) (bool, error)
	PersistIntermediateResults(c Citation, candidates []*metadata.Description) error
}

// OwnerReplacer is implemented by repositories that can swap all citations of
// an owner in one transaction. It returns the saved IDs in order.
type OwnerReplacer interface {
	ReplaceOwnerCitations(assocKind, assocID string, citations []Citation) ([]string, error)
}
