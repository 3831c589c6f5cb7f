package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/metadata"
)

// Description kinds stored in citation_descriptions.
const (
	KindWorking = "working"
	KindSource  = "source"
)

// DB wraps a SQLite database connection and implements citation.Repository.
type DB struct {
	db *sql.DB
}

var _ citation.Repository = (*DB)(nil)

// selectCitationFields contains the standard field list for SELECT queries.
const selectCitationFields = `id, assoc_kind, assoc_id, seq, raw_text, edited_text, state, errors_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS citations (
			id TEXT PRIMARY KEY,
			assoc_kind TEXT NOT NULL,
			assoc_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			raw_text TEXT NOT NULL,
			edited_text TEXT,
			state TEXT NOT NULL,
			errors_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_citations_owner ON citations(assoc_kind, assoc_id, seq);

		-- Working description (position 0) and retained source candidates
		CREATE TABLE IF NOT EXISTS citation_descriptions (
			citation_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			position INTEGER NOT NULL,
			filter_id TEXT,
			statements_json TEXT NOT NULL,
			PRIMARY KEY (citation_id, kind, position)
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS citations_fts USING fts5(
			id,
			text,
			title,
			authors_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveCitation inserts or replaces a citation with its descriptions in one
// transaction. A citation without an id is assigned a new UUID.
func (d *DB) SaveCitation(c citation.Citation) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertCitation(tx, c); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing citation %s: %w", c.ID, err)
	}
	return c.ID, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertCitation(tx execer, c citation.Citation) error {
	var errorsJSON []byte
	if len(c.Errors) > 0 {
		var err error
		if errorsJSON, err = json.Marshal(c.Errors); err != nil {
			return fmt.Errorf("marshaling errors for %s: %w", c.ID, err)
		}
	}

	_, err := tx.Exec(`
		INSERT OR REPLACE INTO citations (`+selectCitationFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.AssocKind, c.AssocID, c.Seq, c.RawText,
		nullableStringValue(c.EditedText), c.State.String(), nullableString(errorsJSON))
	if err != nil {
		return fmt.Errorf("inserting citation %s: %w", c.ID, err)
	}

	var working []*metadata.Description
	if c.Description != nil {
		working = []*metadata.Description{c.Description}
	}
	if err := replaceDescriptions(tx, c.ID, KindWorking, working); err != nil {
		return err
	}
	if err := replaceDescriptions(tx, c.ID, KindSource, c.SourceDescriptions); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM citations_fts WHERE id = ?`, c.ID); err != nil {
		return fmt.Errorf("clearing fts for %s: %w", c.ID, err)
	}
	title, authors := "", ""
	if c.Description != nil {
		title = c.Description.String(metadata.PropArticleTitle)
		authors = formatAuthorsText(c.Description)
	}
	if _, err := tx.Exec(`INSERT INTO citations_fts (id, text, title, authors_text) VALUES (?, ?, ?, ?)`,
		c.ID, c.Text(), title, authors); err != nil {
		return fmt.Errorf("inserting fts for %s: %w", c.ID, err)
	}
	return nil
}

func replaceDescriptions(tx execer, citationID, kind string, descs []*metadata.Description) error {
	if _, err := tx.Exec(`DELETE FROM citation_descriptions WHERE citation_id = ? AND kind = ?`, citationID, kind); err != nil {
		return fmt.Errorf("clearing %s descriptions for %s: %w", kind, citationID, err)
	}
	for i, desc := range descs {
		data, err := json.Marshal(desc)
		if err != nil {
			return fmt.Errorf("marshaling %s description %d for %s: %w", kind, i, citationID, err)
		}
		filterID := ""
		if kind == KindSource {
			filterID = desc.AssocID
		}
		_, err = tx.Exec(`
			INSERT INTO citation_descriptions (citation_id, kind, position, filter_id, statements_json)
			VALUES (?, ?, ?, ?, ?)
		`, citationID, kind, i, nullableStringValue(filterID), string(data))
		if err != nil {
			return fmt.Errorf("inserting %s description %d for %s: %w", kind, i, citationID, err)
		}
	}
	return nil
}

// PersistIntermediateResults stores the candidate descriptions of a lookup as
// the citation's source descriptions.
func (d *DB) PersistIntermediateResults(c citation.Citation, candidates []*metadata.Description) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceDescriptions(tx, c.ID, KindSource, candidates); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteCitation removes a citation and its descriptions. It reports whether
// the citation existed.
func (d *DB) DeleteCitation(id string) (bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := deleteCitation(tx, id)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete of %s: %w", id, err)
	}
	return n > 0, nil
}

func deleteCitation(tx execer, id string) (int64, error) {
	res, err := tx.Exec(`DELETE FROM citations WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting citation %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM citation_descriptions WHERE citation_id = ?`, id); err != nil {
		return 0, fmt.Errorf("deleting descriptions of %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM citations_fts WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("deleting fts of %s: %w", id, err)
	}
	return res.RowsAffected()
}

// ReplaceOwnerCitations deletes every citation of an owner and saves
// citations in their place, in one transaction. Citations without an ID get
// one; the IDs are returned in order.
func (d *DB) ReplaceOwnerCitations(assocKind, assocID string, citations []citation.Citation) ([]string, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM citations WHERE assoc_kind = ? AND assoc_id = ?`, assocKind, assocID)
	if err != nil {
		return nil, fmt.Errorf("listing citations of %s %s: %w", assocKind, assocID, err)
	}
	var existing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning citation id: %w", err)
		}
		existing = append(existing, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating citation ids: %w", err)
	}

	for _, id := range existing {
		if _, err := deleteCitation(tx, id); err != nil {
			return nil, err
		}
	}
	ids := make([]string, 0, len(citations))
	for _, c := range citations {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if err := insertCitation(tx, c); err != nil {
			return nil, err
		}
		ids = append(ids, c.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing citations of %s %s: %w", assocKind, assocID, err)
	}
	return ids, nil
}

// LoadCitationsForOwner returns the citations of an owner in sequence order.
func (d *DB) LoadCitationsForOwner(assocKind, assocID string) ([]citation.Citation, error) {
	rows, err := d.db.Query(`SELECT `+selectCitationFields+`
		FROM citations WHERE assoc_kind = ? AND assoc_id = ? ORDER BY seq, id`, assocKind, assocID)
	if err != nil {
		return nil, fmt.Errorf("loading citations for %s %s: %w", assocKind, assocID, err)
	}
	citations, err := scanCitations(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	return d.withDescriptions(citations)
}

// GetCitation retrieves a citation by id. It returns nil when no citation
// has that id.
func (d *DB) GetCitation(id string) (*citation.Citation, error) {
	row := d.db.QueryRow(`SELECT `+selectCitationFields+` FROM citations WHERE id = ?`, id)
	c, err := scanCitation(row)
	if err != nil || c == nil {
		return nil, err
	}
	out, err := d.withDescriptions([]citation.Citation{*c})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ListAll returns all citations ordered by owner and sequence, optionally
// limited.
func (d *DB) ListAll(limit int) ([]citation.Citation, error) {
	query := `SELECT ` + selectCitationFields + ` FROM citations ORDER BY assoc_kind, assoc_id, seq`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = []any{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing citations: %w", err)
	}
	citations, err := scanCitations(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	return d.withDescriptions(citations)
}

// Search performs a full-text search over citation text, titles and
// authors.
func (d *DB) Search(query string, limit int) ([]citation.Citation, error) {
	rows, err := d.db.Query(`
		SELECT `+selectCitationFields+`
		FROM citations
		WHERE id IN (SELECT id FROM citations_fts WHERE citations_fts MATCH ?)
		ORDER BY assoc_kind, assoc_id, seq
		LIMIT ?`, prepareFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	citations, err := scanCitations(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	return d.withDescriptions(citations)
}

// Count returns the total number of citations.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM citations").Scan(&count)
	return count, err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	citations, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"citations", "citation_descriptions", "citations_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}
	for _, c := range citations {
		if err := insertCitation(tx, c); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(citations), nil
}

// withDescriptions loads the working and source descriptions of citations.
func (d *DB) withDescriptions(citations []citation.Citation) ([]citation.Citation, error) {
	reg := metadata.DefaultRegistry()
	for i := range citations {
		c := &citations[i]
		rows, err := d.db.Query(`
			SELECT kind, statements_json FROM citation_descriptions
			WHERE citation_id = ? ORDER BY kind, position`, c.ID)
		if err != nil {
			return nil, fmt.Errorf("loading descriptions of %s: %w", c.ID, err)
		}
		for rows.Next() {
			var kind, data string
			if err := rows.Scan(&kind, &data); err != nil {
				rows.Close()
				return nil, err
			}
			desc, err := reg.Decode([]byte(data))
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("decoding %s description of %s: %w", kind, c.ID, err)
			}
			if kind == KindWorking {
				c.Description = desc
			} else {
				c.SourceDescriptions = append(c.SourceDescriptions, desc)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return citations, nil
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(d *metadata.Description) string {
	var names []string
	for _, a := range d.Composites(metadata.PropAuthors) {
		names = append(names, metadata.FormatPersonName(a))
	}
	return strings.Join(names, ", ")
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanCitation(s scanner) (*citation.Citation, error) {
	var c citation.Citation
	var editedText, errorsJSON sql.NullString
	var state string

	err := s.Scan(&c.ID, &c.AssocKind, &c.AssocID, &c.Seq, &c.RawText, &editedText, &state, &errorsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	c.EditedText = editedText.String
	if c.State, err = citation.ParseState(state); err != nil {
		return nil, fmt.Errorf("citation %s: %w", c.ID, err)
	}
	if errorsJSON.Valid && errorsJSON.String != "" {
		if err := json.Unmarshal([]byte(errorsJSON.String), &c.Errors); err != nil {
			return nil, fmt.Errorf("parsing errors JSON for %s: %w", c.ID, err)
		}
	}
	return &c, nil
}

func scanCitations(rows *sql.Rows) ([]citation.Citation, error) {
	var citations []citation.Citation
	for rows.Next() {
		c, err := scanCitation(rows)
		if err != nil {
			return nil, err
		}
		if c != nil {
			citations = append(citations, *c)
		}
	}
	return citations, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
