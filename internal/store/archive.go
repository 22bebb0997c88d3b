package store

import (
	"archive/tar"
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
)

// Archive entry names.
const (
	ManifestName = "manifest.json"
	VersesName   = "verses.json"

	archiveVersion = 1
)

// Manifest describes an exported archive.
type Manifest struct {
	Version      int       `json:"version"`
	Created      time.Time `json:"created"`
	Translations []string  `json:"translations"`
	Count        int       `json:"count"`
	// BLAKE3 is the hex digest of the verses entry.
	BLAKE3 string `json:"blake3"`
}

// Record is one stored row as it appears in an archive.
type Record struct {
	ID          string               `json:"id"`
	Translation string               `json:"translation"`
	Book        string               `json:"book"`
	Chapter     int                  `json:"chapter"`
	Verse       scripture.Num        `json:"verse,omitzero"`
	Text        string               `json:"text"`
	SourceType  scripture.SourceType `json:"sourceType,omitempty"`
	AddedViaTag bool                 `json:"addedViaTag,omitempty"`
	Hash        string               `json:"hash"`
}

func (r Record) verse() scripture.Verse {
	return scripture.Verse{
		Book:        r.Book,
		Chapter:     r.Chapter,
		Verse:       r.Verse,
		Text:        r.Text,
		Translation: r.Translation,
		SourceType:  r.SourceType,
		AddedViaTag: r.AddedViaTag,
	}
}

// Records returns every stored row ordered by translation and reference.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, translation, book, chapter, verse, text, source_type, added_via_tag, hash
		FROM verses ORDER BY translation, book, chapter, verse, rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "read records")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r      Record
			verse  sql.NullInt64
			source string
		)
		if err := rows.Scan(&r.ID, &r.Translation, &r.Book, &r.Chapter, &verse, &r.Text, &source, &r.AddedViaTag, &r.Hash); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		if verse.Valid {
			r.Verse = scripture.Some(int(verse.Int64))
		}
		r.SourceType = scripture.SourceType(source)
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "read records")
}

// Export writes every stored verse to w as an xz-compressed tar holding
// a manifest and a JSON verse list. It returns the number of verses written.
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return 0, err
	}
	translations, err := s.Translations(ctx)
	if err != nil {
		return 0, err
	}

	versesData, err := json.Marshal(records)
	if err != nil {
		return 0, errors.Wrap(err, "encode verses")
	}
	sum := blake3.Sum256(versesData)

	manifest := Manifest{
		Version:      archiveVersion,
		Created:      time.Now().UTC(),
		Translations: translations,
		Count:        len(records),
		BLAKE3:       hex.EncodeToString(sum[:]),
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return 0, errors.Wrap(err, "encode manifest")
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return 0, errors.Wrap(err, "create xz writer")
	}
	tw := tar.NewWriter(xw)

	for _, entry := range []struct {
		name string
		data []byte
	}{
		{ManifestName, manifestData},
		{VersesName, versesData},
	} {
		hdr := &tar.Header{
			Name:    entry.name,
			Mode:    0644,
			Size:    int64(len(entry.data)),
			ModTime: manifest.Created,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return 0, errors.Wrapf(err, "write %s header", entry.name)
		}
		if _, err := tw.Write(entry.data); err != nil {
			return 0, errors.Wrapf(err, "write %s", entry.name)
		}
	}

	if err := tw.Close(); err != nil {
		return 0, errors.Wrap(err, "close tar")
	}
	if err := xw.Close(); err != nil {
		return 0, errors.Wrap(err, "close xz")
	}

	logging.StoreEvent(ctx, "export", int64(len(records)))
	return len(records), nil
}

// ReadArchive decodes an archive written by Export and checks its digest.
func ReadArchive(r io.Reader) (Manifest, []Record, error) {
	var (
		manifest    Manifest
		versesData  []byte
		sawManifest bool
	)

	xr, err := xz.NewReader(r)
	if err != nil {
		return manifest, nil, errors.NewParse("archive", "", fmt.Sprintf("not an xz stream: %v", err))
	}
	tr := tar.NewReader(xr)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return manifest, nil, &errors.ParseError{Format: "archive", Message: "read tar entry", Err: err}
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return manifest, nil, errors.Wrapf(err, "read %s", hdr.Name)
		}
		switch hdr.Name {
		case ManifestName:
			if err := json.Unmarshal(data, &manifest); err != nil {
				return manifest, nil, &errors.ParseError{Format: "archive", Path: ManifestName, Message: "invalid manifest", Err: err}
			}
			sawManifest = true
		case VersesName:
			versesData = data
		}
	}

	if !sawManifest {
		return manifest, nil, errors.NewParse("archive", ManifestName, "missing manifest")
	}
	if manifest.Version != archiveVersion {
		return manifest, nil, errors.NewUnsupported(fmt.Sprintf("archive version %d", manifest.Version), "only version 1 is readable")
	}
	if versesData == nil {
		return manifest, nil, errors.NewParse("archive", VersesName, "missing verses")
	}

	sum := blake3.Sum256(versesData)
	if got := hex.EncodeToString(sum[:]); got != manifest.BLAKE3 {
		return manifest, nil, errors.NewParse("archive", VersesName, fmt.Sprintf("digest mismatch: manifest %s, content %s", manifest.BLAKE3, got))
	}

	var records []Record
	if err := json.Unmarshal(versesData, &records); err != nil {
		return manifest, nil, &errors.ParseError{Format: "archive", Path: VersesName, Message: "invalid verses", Err: err}
	}
	return manifest, records, nil
}

// Restore loads an archive written by Export. Rows keep their IDs; a row
// whose ID already exists is replaced. Content hashes are recomputed.
func (s *Store) Restore(ctx context.Context, r io.Reader) (int, error) {
	_, records, err := ReadArchive(r)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if rec.ID == "" || rec.Translation == "" {
			return 0, errors.Wrapf(errors.NewValidation("id", "record needs id and translation"), "record %d", i)
		}
		if err := validateVerse(rec.verse()); err != nil {
			return 0, errors.Wrapf(err, "record %d", i)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin restore")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO verses (id, translation, book, chapter, verse, text, source_type, added_via_tag, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "prepare restore")
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.ID, rec.Translation, rec.Book, rec.Chapter, nullVerse(rec.Verse),
			rec.Text, string(rec.SourceType), rec.AddedViaTag, Hash(rec.Translation, rec.verse()))
		if err != nil {
			return 0, errors.Wrapf(err, "restore %s", rec.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit restore")
	}

	logging.StoreEvent(ctx, "restore", int64(len(records)))
	return len(records), nil
}
