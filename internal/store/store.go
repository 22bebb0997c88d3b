// Package store keeps verse text in SQLite, keyed by translation and
// canonical book name, and answers reference lookups for the resolver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/core/sqlite"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS verses (
	id            TEXT PRIMARY KEY,
	translation   TEXT NOT NULL,
	book          TEXT NOT NULL,
	chapter       INTEGER NOT NULL,
	verse         INTEGER,
	text          TEXT NOT NULL DEFAULT '',
	source_type   TEXT NOT NULL DEFAULT '',
	added_via_tag INTEGER NOT NULL DEFAULT 0,
	hash          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verses_ref ON verses (translation, book, chapter, verse);
CREATE INDEX IF NOT EXISTS idx_verses_hash ON verses (hash);
`

// Store is a SQLite-backed verse store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the store at path and migrates its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.OpenContext(ctx, path)
	if err != nil {
		return nil, errors.NewIO("open verse store", path, err)
	}
	s := &Store{db: db, path: path}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate verse store")
		}
	}
	return nil
}

// Put stores verses under translation and returns how many were new.
// A verse whose content hash is already stored is skipped.
func (s *Store) Put(ctx context.Context, translation string, verses []scripture.Verse) (int, error) {
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return 0, errors.NewValidation("translation", "must not be empty")
	}
	for i, v := range verses {
		if err := validateVerse(v); err != nil {
			return 0, errors.Wrapf(err, "verse %d", i)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin put")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verses (id, translation, book, chapter, verse, text, source_type, added_via_tag, hash)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM verses WHERE hash = ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "prepare put")
	}
	defer stmt.Close()

	inserted := 0
	for _, v := range verses {
		h := Hash(translation, v)
		res, err := stmt.ExecContext(ctx,
			uuid.NewString(), translation, v.Book, v.Chapter, nullVerse(v.Verse),
			v.Text, string(v.SourceType), v.AddedViaTag, h, h)
		if err != nil {
			return 0, errors.Wrapf(err, "insert %s", v.FormatReference())
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit put")
	}
	logging.StoreEvent(ctx, "put", int64(inserted), "translation", translation, "skipped", len(verses)-inserted)
	return inserted, nil
}

func validateVerse(v scripture.Verse) error {
	if strings.TrimSpace(v.Book) == "" {
		return errors.NewValidation("book", "must not be empty")
	}
	if v.Chapter <= 0 {
		return &errors.ValidationError{Field: "chapter", Value: fmt.Sprint(v.Chapter), Message: "must be positive"}
	}
	return nil
}

// Lookup returns the stored verses a reference covers, in verse order.
// A chapter-only reference returns every numbered verse of the chapter.
func (s *Store) Lookup(ctx context.Context, translation string, ref scripture.Reference) ([]scripture.Verse, error) {
	where, args := refCondition(ref)
	query := `SELECT book, chapter, verse, text, source_type, added_via_tag, translation
		FROM verses WHERE translation = ? AND book = ? AND ` + where + `
		ORDER BY chapter, verse`

	rows, err := s.db.QueryContext(ctx, query, append([]any{translation, ref.Book}, args...)...)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup %s", ref)
	}
	defer rows.Close()

	var out []scripture.Verse
	for rows.Next() {
		var (
			v      scripture.Verse
			verse  sql.NullInt64
			source string
		)
		if err := rows.Scan(&v.Book, &v.Chapter, &verse, &v.Text, &source, &v.AddedViaTag, &v.Translation); err != nil {
			return nil, errors.Wrap(err, "scan verse")
		}
		if verse.Valid {
			v.Verse = scripture.Some(int(verse.Int64))
		}
		v.SourceType = scripture.SourceType(source)
		out = append(out, v)
	}
	return out, errors.Wrap(rows.Err(), "lookup rows")
}

// refCondition builds the chapter/verse filter for ref.
func refCondition(ref scripture.Reference) (string, []any) {
	v, hasVerse := ref.Verse.Get()
	if !hasVerse {
		return "chapter = ? AND verse IS NOT NULL", []any{ref.Chapter}
	}

	if ec, ok := ref.EndChapter.Get(); ok && ec > ref.Chapter {
		ev := ref.EndVerse.Int()
		return `((chapter = ? AND verse >= ?) OR (chapter > ? AND chapter < ?) OR (chapter = ? AND verse <= ?))`,
			[]any{ref.Chapter, v, ref.Chapter, ec, ec, ev}
	}

	end := v
	if ev, ok := ref.EndVerse.Get(); ok && ev > v {
		end = ev
	}
	return "chapter = ? AND verse BETWEEN ? AND ?", []any{ref.Chapter, v, end}
}

// Count returns the number of stored verses, for one translation or,
// when translation is empty, for all.
func (s *Store) Count(ctx context.Context, translation string) (int, error) {
	var n int
	var err error
	if translation == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verses`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verses WHERE translation = ?`, translation).Scan(&n)
	}
	return n, errors.Wrap(err, "count verses")
}

// Translations lists the stored translations alphabetically.
func (s *Store) Translations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT translation FROM verses ORDER BY translation`)
	if err != nil {
		return nil, errors.Wrap(err, "list translations")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, errors.Wrap(err, "scan translation")
		}
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "list translations")
}

// Dedupe deletes rows whose content hash repeats an earlier row and
// returns how many were removed.
func (s *Store) Dedupe(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM verses
		WHERE rowid NOT IN (SELECT MIN(rowid) FROM verses GROUP BY hash)`)
	if err != nil {
		return 0, errors.Wrap(err, "dedupe verses")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "dedupe verses")
	}
	logging.StoreEvent(ctx, "dedupe", n)
	return n, nil
}

func nullVerse(n scripture.Num) sql.NullInt64 {
	v, ok := n.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}
