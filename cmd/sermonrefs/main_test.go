package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
)

const sampleLines = `Genesis 1:1 In the beginning God created the heaven and the earth.
John 3:16 For God so loved the world,
John 3:17 For God sent not his Son into the world to condemn the world;
Romans 8:28 And we know that all things work together for good
`

// testApp returns an App over a fresh database in a temp dir reading
// stdin from the given text.
func testApp(t *testing.T, db, stdin string) (*App, *bytes.Buffer) {
	t.Helper()
	if db == "" {
		db = filepath.Join(t.TempDir(), "verses.db")
	}
	var out bytes.Buffer
	app, err := newApp(context.Background(), Globals{DB: db, LogLevel: "error", LogFormat: "text"}, strings.NewReader(stdin), &out)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, &out
}

func TestCLIParse(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"refs", "extract"}, "refs extract"},
		{[]string{"refs", "parse", "1", "Cor", "13:4-7"}, "refs parse <reference>"},
		{[]string{"refs", "wrap", "--format", "markdown", "notes.txt"}, "refs wrap <path>"},
		{[]string{"verses", "import", "lines", "kjv.txt", "-t", "KJV"}, "verses import <format> <path>"},
		{[]string{"verses", "resolve", "--order", "preserve"}, "verses resolve"},
		{[]string{"--db", "x.db", "verses", "dedupe"}, "verses dedupe"},
		{[]string{"books", "--extra"}, "books"},
		{[]string{"serve", "--port", "9000"}, "serve"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			var cli CLI
			parser, err := kong.New(&cli, kong.Name("sermonrefs"))
			if err != nil {
				t.Fatal(err)
			}
			kctx, err := parser.Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.args, err)
			}
			if got := kctx.Command(); got != tt.want {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("bad import format", func(t *testing.T) {
		var cli CLI
		parser, _ := kong.New(&cli, kong.Name("sermonrefs"))
		if _, err := parser.Parse([]string{"verses", "import", "usfm", "x"}); err == nil {
			t.Error("Parse() should reject an unknown import format")
		}
	})
}

func TestNewAppFlags(t *testing.T) {
	db := filepath.Join(t.TempDir(), "flag.db")
	app, _ := testApp(t, db, "")
	if app.cfg.Database != db || app.cfg.LogLevel != "error" {
		t.Errorf("cfg = %+v, flags not applied", app.cfg)
	}

	_, err := newApp(context.Background(), Globals{LogLevel: "loud"}, nil, &bytes.Buffer{})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("newApp(bad level) error = %v, want ErrInvalidInput", err)
	}
}

func TestRefsExtract(t *testing.T) {
	text := "Remember John 3:16 and also Romans 8:28-30."

	app, out := testApp(t, "", text)
	if err := (&RefsExtractCmd{}).Run(app); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "John 3:16\nRomans 8:28-30\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	app, out = testApp(t, "", text)
	if err := (&RefsExtractCmd{JSON: true}).Run(app); err != nil {
		t.Fatal(err)
	}
	var refs []scripture.Reference
	if err := json.Unmarshal(out.Bytes(), &refs); err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 || refs[1].EndVerse.Int() != 30 {
		t.Errorf("refs = %+v", refs)
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("See Jn 3:16."), 0o644); err != nil {
		t.Fatal(err)
	}
	app, out = testApp(t, "", "")
	if err := (&RefsExtractCmd{Path: path, Spans: true}).Run(app); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"start": 4`) {
		t.Errorf("spans output = %s", out)
	}

	app, _ = testApp(t, "", "")
	err := (&RefsExtractCmd{Path: filepath.Join(t.TempDir(), "missing.txt")}).Run(app)
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("missing file error = %v, want IOError", err)
	}
}

func TestRefsParse(t *testing.T) {
	app, out := testApp(t, "", "")
	if err := (&RefsParseCmd{Reference: []string{"1", "Cor", "13:4-7"}}).Run(app); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "1 Corinthians 13:4-7\n" {
		t.Errorf("output = %q", got)
	}

	err := (&RefsParseCmd{Reference: []string{"Hezekiah", "1:1"}}).Run(app)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("unknown book error = %v, want ErrInvalidInput", err)
	}
}

func TestRefsWrap(t *testing.T) {
	tests := []struct {
		cmd  RefsWrapCmd
		want string
	}{
		{RefsWrapCmd{Format: "html"}, `Read <span class="scripture-ref" data-ref="John 3:16">Jn 3:16</span>.`},
		{RefsWrapCmd{Format: "markdown", LinkBase: "/read/"}, "Read [Jn 3:16](/read/John%203:16)."},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Format, func(t *testing.T) {
			app, out := testApp(t, "", "Read Jn 3:16.")
			if err := tt.cmd.Run(app); err != nil {
				t.Fatal(err)
			}
			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersesMerge(t *testing.T) {
	input := `[
		{"book": "John", "chapter": 3, "verse": 17, "text": "For God sent"},
		{"book": "Genesis", "chapter": 1, "verse": 1, "text": "In the beginning"},
		{"book": "John", "chapter": 3, "verse": 16, "text": "For God so loved"}
	]`

	app, out := testApp(t, "", input)
	if err := (&VersesMergeCmd{}).Run(app); err != nil {
		t.Fatal(err)
	}
	var got []scripture.Verse
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	refs := make([]string, len(got))
	for i, v := range got {
		refs[i] = v.Reference
	}
	if diff := cmp.Diff([]string{"Genesis 1:1", "John 3:16-17"}, refs); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	if got[1].Text != "For God so loved For God sent" {
		t.Errorf("merged text = %q", got[1].Text)
	}

	app, _ = testApp(t, "", "[")
	var parseErr *errors.ParseError
	if err := (&VersesMergeCmd{}).Run(app); !errors.As(err, &parseErr) {
		t.Errorf("bad JSON error = %v, want ParseError", err)
	}

	app, _ = testApp(t, "", input)
	if err := (&VersesMergeCmd{Order: "shuffled"}).Run(app); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("bad order error = %v, want ErrInvalidInput", err)
	}
}

func TestVersesLifecycle(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "verses.db")

	app, out := testApp(t, db, sampleLines+"not a verse\n")
	if err := (&VersesImportCmd{Format: "auto", Path: "-", Translation: "KJV"}).Run(app); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := out.String(); got != "Imported 4 of 4 verses into KJV (lines, 1 skipped)\n" {
		t.Errorf("import output = %q", got)
	}

	app, out = testApp(t, db, "Read Rom 8:28 and John 3:16-17. Also Obadiah 1:30.")
	if err := (&VersesResolveCmd{}).Run(app); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := "John 3:16-17 (KJV)\n" +
		"  For God so loved the world, For God sent not his Son into the world to condemn the world;\n" +
		"Romans 8:28 (KJV)\n" +
		"  And we know that all things work together for good\n" +
		"not found: Obadiah 1:30\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("resolve output mismatch (-want +got):\n%s", diff)
	}

	app, out = testApp(t, db, "")
	if err := (&VersesDedupeCmd{}).Run(app); err != nil {
		t.Fatalf("dedupe: %v", err)
	}
	if got := out.String(); got != "Removed 0 duplicate verses\n" {
		t.Errorf("dedupe output = %q", got)
	}

	archive := filepath.Join(dir, "verses.tar.xz")
	app, out = testApp(t, db, "")
	if err := (&VersesExportCmd{Out: archive}).Run(app); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Exported 4 verses") {
		t.Errorf("export output = %q", out)
	}

	restored := filepath.Join(dir, "restored.db")
	app, out = testApp(t, restored, "")
	if err := (&VersesRestoreCmd{Path: archive}).Run(app); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Restored 4 verses") {
		t.Errorf("restore output = %q", out)
	}

	app, out = testApp(t, restored, "Genesis 1:1")
	if err := (&VersesResolveCmd{JSON: true}).Run(app); err != nil {
		t.Fatal(err)
	}
	var res struct {
		Verses []scripture.Verse `json:"verses"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Verses) != 1 || !strings.HasPrefix(res.Verses[0].Text, "In the beginning") {
		t.Errorf("restored resolve = %+v", res.Verses)
	}
}

func TestVersesImportNoVerses(t *testing.T) {
	app, _ := testApp(t, "", "nothing here\n")
	err := (&VersesImportCmd{Format: "lines", Path: "-"}).Run(app)
	var parseErr *errors.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %v, want ParseError", err)
	}
}

func TestBooks(t *testing.T) {
	app, out := testApp(t, "", "")
	if err := (&BooksCmd{}).Run(app); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 67 {
		t.Errorf("books printed %d lines, want header + 66", len(lines))
	}
	if !strings.HasPrefix(lines[1], "1     Genesis") {
		t.Errorf("first book line = %q", lines[1])
	}

	app, out = testApp(t, "", "")
	if err := (&BooksCmd{Extra: true}).Run(app); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out.String(), "\n"); n <= 67 {
		t.Errorf("--extra printed %d lines, want more than 67", n)
	}
}

func TestVersion(t *testing.T) {
	app, out := testApp(t, "", "")
	if err := (&VersionCmd{}).Run(app); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "sermonrefs version "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestReadInputRejectsBinary(t *testing.T) {
	app, _ := testApp(t, "", "SQLite format 3\x00\x10\x00")
	err := (&RefsExtractCmd{}).Run(app)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}
