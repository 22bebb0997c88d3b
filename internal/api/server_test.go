package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/sermonrefs/core/merge"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/internal/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func kjv(book string, chapter, verse int, text string) scripture.Verse {
	return scripture.Verse{Book: book, Chapter: chapter, Verse: scripture.Some(verse), Text: text, SourceType: scripture.SourceManual}
}

// newTestServer returns a Server over a seeded store in a temp dir with
// its hub running until the test ends.
func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "verses.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	_, err = st.Put(ctx, "KJV", []scripture.Verse{
		kjv("Genesis", 1, 1, "In the beginning God created the heaven and the earth."),
		kjv("John", 3, 16, "For God so loved the world,"),
		kjv("John", 3, 17, "For God sent not his Son into the world to condemn the world;"),
		kjv("Romans", 8, 28, "And we know that all things work together for good"),
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	s := New(cfg, st)
	hubCtx, cancel := context.WithCancel(ctx)
	go s.hub.Run(hubCtx)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return s, ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any) (*http.Response, envelope) {
	t.Helper()

	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp, env
}

func data[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

func wantError(t *testing.T, resp *http.Response, env envelope, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Errorf("status = %d, want %d", resp.StatusCode, status)
	}
	if env.Success || env.Error == nil || env.Error.Code != code {
		t.Errorf("error = %+v, want code %s", env.Error, code)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, Config{Version: "1.2.3"})

	resp, env := call(t, ts, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("GET /health = %d %+v", resp.StatusCode, env.Error)
	}
	info := data[HealthInfo](t, env)
	if info.Status != "healthy" || info.Version != "1.2.3" || info.Verses != 4 || info.SQLiteDriver == "" {
		t.Errorf("health = %+v", info)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestRootAndNotFound(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, env := call(t, ts, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Errorf("GET / = %d", resp.StatusCode)
	}

	resp, env = call(t, ts, http.MethodGet, "/nope", nil)
	wantError(t, resp, env, http.StatusNotFound, "NOT_FOUND")
}

func TestBooks(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	_, env := call(t, ts, http.MethodGet, "/books", nil)
	books := data[[]BookInfo](t, env)
	if len(books) == 0 || books[0].Name != "Genesis" || books[0].Order != 0 {
		t.Fatalf("first book = %+v", books[0])
	}
	for _, b := range books {
		if !b.Canonical {
			t.Errorf("GET /books returned extra-canonical %q", b.Name)
		}
	}
	if env.Meta.Total != len(books) {
		t.Errorf("meta.total = %d, want %d", env.Meta.Total, len(books))
	}

	_, env = call(t, ts, http.MethodGet, "/books?extra=true", nil)
	if all := data[[]BookInfo](t, env); len(all) <= len(books) {
		t.Errorf("extra=true returned %d books, want more than %d", len(all), len(books))
	}
}

func TestExtract(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		name    string
		req     ExtractRequest
		refs    []string
		wrapped string
		spans   int
	}{
		{
			name: "plain",
			req:  ExtractRequest{Text: "Remember John 3:16 and also Romans 8:28-30."},
			refs: []string{"John 3:16", "Romans 8:28-30"},
		},
		{
			name:  "spans",
			req:   ExtractRequest{Text: "See Jn 3:16. Then Ps 23!", Spans: true},
			refs:  []string{"John 3:16", "Psalms 23"},
			spans: 2,
		},
		{
			name:    "html",
			req:     ExtractRequest{Text: "Read Jn 3:16 & <pray>", Wrap: "html"},
			refs:    []string{"John 3:16"},
			wrapped: `Read <span class="scripture-ref" data-ref="John 3:16">Jn 3:16</span> &amp; &lt;pray&gt;`,
		},
		{
			name:    "markdown",
			req:     ExtractRequest{Text: "See 1 Cor 13:4-7.", Wrap: "markdown", LinkBase: "https://example.org/read/"},
			refs:    []string{"1 Corinthians 13:4-7"},
			wrapped: "See [1 Cor 13:4-7](https://example.org/read/1%20Corinthians%2013:4-7).",
		},
		{
			name: "none",
			req:  ExtractRequest{Text: "no citations here"},
			refs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := call(t, ts, http.MethodPost, "/extract", tt.req)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
			}
			got := data[ExtractResponse](t, env)

			refs := make([]string, 0, len(got.References))
			for _, r := range got.References {
				refs = append(refs, r.Reference)
			}
			if diff := cmp.Diff(tt.refs, refs); diff != "" {
				t.Errorf("references mismatch (-want +got):\n%s", diff)
			}
			if got.Wrapped != tt.wrapped {
				t.Errorf("wrapped = %q, want %q", got.Wrapped, tt.wrapped)
			}
			if len(got.Matches) != tt.spans {
				t.Errorf("matches = %d, want %d", len(got.Matches), tt.spans)
			}
		})
	}

	t.Run("bad wrap", func(t *testing.T) {
		resp, env := call(t, ts, http.MethodPost, "/extract", ExtractRequest{Text: "John 3:16", Wrap: "pdf"})
		wantError(t, resp, env, http.StatusBadRequest, "INVALID_INPUT")
	})
}

func TestParse(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, env := call(t, ts, http.MethodPost, "/parse", ParseRequest{Reference: "1cor 13:4–7"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	if ref := data[scripture.Reference](t, env); ref.Reference != "1 Corinthians 13:4-7" || ref.EndVerse.Int() != 7 {
		t.Errorf("ref = %+v", ref)
	}

	tests := []struct {
		name string
		body any
		code string
	}{
		{"unknown book", ParseRequest{Reference: "Hezekiah 1:1"}, "INVALID_INPUT"},
		{"empty", ParseRequest{Reference: " "}, "INVALID_INPUT"},
		{"malformed", ParseRequest{Reference: "John three"}, "PARSE_ERROR"},
		{"bad json", "{", "INVALID_JSON"},
		{"no body", nil, "INVALID_JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := call(t, ts, http.MethodPost, "/parse", tt.body)
			wantError(t, resp, env, http.StatusBadRequest, tt.code)
		})
	}
}

func TestMerge(t *testing.T) {
	_, ts := newTestServer(t, Config{MergeOrder: merge.Canonical})

	verses := []scripture.Verse{
		kjv("John", 3, 16, "For God so loved"),
		kjv("John", 3, 17, "For God sent"),
		kjv("Genesis", 1, 1, "In the beginning"),
	}

	tests := []struct {
		order string
		want  []string
	}{
		{"", []string{"Genesis 1:1", "John 3:16-17"}},
		{"preserve", []string{"John 3:16-17", "Genesis 1:1"}},
	}
	for _, tt := range tests {
		t.Run("order="+tt.order, func(t *testing.T) {
			resp, env := call(t, ts, http.MethodPost, "/merge", MergeRequest{Verses: verses, Order: tt.order})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
			}
			got := data[[]scripture.Verse](t, env)
			refs := make([]string, len(got))
			for i, v := range got {
				refs[i] = v.Reference
			}
			if diff := cmp.Diff(tt.want, refs); diff != "" {
				t.Errorf("merge mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("bad order", func(t *testing.T) {
		resp, env := call(t, ts, http.MethodPost, "/merge", MergeRequest{Verses: verses, Order: "random"})
		wantError(t, resp, env, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("empty", func(t *testing.T) {
		_, env := call(t, ts, http.MethodPost, "/merge", MergeRequest{})
		if got := data[[]scripture.Verse](t, env); got == nil || len(got) != 0 {
			t.Errorf("merge of nothing = %v, want []", got)
		}
	})
}

func TestResolve(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, env := call(t, ts, http.MethodPost, "/resolve", ResolveRequest{
		Text:        "Read Rom 8:28, then John 3:16-17 and Obadiah 1:30.",
		SourceType:  scripture.SourceTag,
		AddedViaTag: true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}

	var got struct {
		Translation string            `json:"translation"`
		Verses      []scripture.Verse `json:"verses"`
		Missing     []struct {
			Reference string `json:"reference"`
		} `json:"missing"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}

	if got.Translation != "KJV" {
		t.Errorf("translation = %q, want the default KJV", got.Translation)
	}
	if len(got.Verses) != 2 || got.Verses[0].Reference != "John 3:16-17" || got.Verses[1].Reference != "Romans 8:28" {
		t.Fatalf("verses = %+v", got.Verses)
	}
	if v := got.Verses[0]; v.SourceType != scripture.SourceTag || !v.AddedViaTag {
		t.Errorf("provenance = %q/%v", v.SourceType, v.AddedViaTag)
	}
	if len(got.Missing) != 1 || got.Missing[0].Reference != "Obadiah 1:30" {
		t.Errorf("missing = %+v", got.Missing)
	}
	if env.Meta.Total != 2 {
		t.Errorf("meta.total = %d, want 2", env.Meta.Total)
	}
}

func TestImportJob(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	resp, env := call(t, ts, http.MethodPost, "/import", ImportRequest{
		Format:      "lines",
		Translation: "WEB",
		Content:     "Genesis 1:1 In the beginning, God created the heavens and the earth.\nJohn 3:16 For God so loved the world,\nnot a verse\n",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	job := data[Job](t, env)
	if job.ID == "" {
		t.Fatal("job has no ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done, err := s.jobs.Wait(ctx, job.ID)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if done.Status != JobStatusCompleted || done.Result == nil {
		t.Fatalf("job = %+v", done)
	}
	want := &ImportResult{Format: "lines", Translation: "WEB", Parsed: 2, Imported: 2, Skipped: 1, Duration: done.Result.Duration}
	if diff := cmp.Diff(want, done.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	_, env = call(t, ts, http.MethodGet, "/jobs/"+job.ID, nil)
	if got := data[Job](t, env); got.Status != JobStatusCompleted {
		t.Errorf("GET /jobs/{id} status = %s", got.Status)
	}

	_, env = call(t, ts, http.MethodGet, "/translations", nil)
	got := data[[]TranslationInfo](t, env)
	if diff := cmp.Diff([]TranslationInfo{{Name: "KJV", Verses: 4}, {Name: "WEB", Verses: 2}}, got); diff != "" {
		t.Errorf("translations mismatch (-want +got):\n%s", diff)
	}

	resp, env = call(t, ts, http.MethodDelete, "/jobs/"+job.ID, nil)
	wantError(t, resp, env, http.StatusConflict, "CANCEL_FAILED")
}

func TestImportJobFails(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	_, env := call(t, ts, http.MethodPost, "/import", ImportRequest{Format: "lines", Content: "nothing to see"})
	job := data[Job](t, env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done, err := s.jobs.Wait(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != JobStatusFailed || !strings.Contains(done.Error, "No valid verses found") {
		t.Errorf("job = %s %q, want failed", done.Status, done.Error)
	}
}

func TestImportValidation(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, env := call(t, ts, http.MethodPost, "/import", ImportRequest{Content: "  "})
	wantError(t, resp, env, http.StatusBadRequest, "MISSING_PARAMS")

	resp, env = call(t, ts, http.MethodPost, "/import", ImportRequest{Format: "usfm", Content: "\\v 1 text"})
	wantError(t, resp, env, http.StatusBadRequest, "INVALID_INPUT")

	resp, env = call(t, ts, http.MethodPost, "/import", ImportRequest{Format: "lines", Content: "John 3:16\x00binary"})
	wantError(t, resp, env, http.StatusBadRequest, "INVALID_INPUT")
}

func TestJobs(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	resp, env := call(t, ts, http.MethodGet, "/jobs/missing", nil)
	wantError(t, resp, env, http.StatusNotFound, "NOT_FOUND")

	resp, env = call(t, ts, http.MethodDelete, "/jobs/missing", nil)
	wantError(t, resp, env, http.StatusNotFound, "NOT_FOUND")

	job := s.jobs.Create(ImportRequest{Format: "lines"})
	resp, env = call(t, ts, http.MethodDelete, "/jobs/"+job.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	if got, _ := s.jobs.Get(job.ID); got.Status != JobStatusCancelled || got.CompletedAt == "" {
		t.Errorf("after cancel = %+v", got)
	}
	if job.ctx.Err() == nil {
		t.Error("cancel should cancel the job context")
	}

	_, env = call(t, ts, http.MethodGet, "/jobs", nil)
	if jobs := data[[]Job](t, env); len(jobs) != 1 || jobs[0].ID != job.ID {
		t.Errorf("GET /jobs = %+v", jobs)
	}
}

func TestBodyTooLarge(t *testing.T) {
	_, ts := newTestServer(t, Config{MaxBodyBytes: 64})

	resp, env := call(t, ts, http.MethodPost, "/extract", ExtractRequest{Text: strings.Repeat("John 3:16 ", 20)})
	wantError(t, resp, env, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE")
}

func TestRateLimit(t *testing.T) {
	_, ts := newTestServer(t, Config{RateLimitRequests: 1, RateLimitBurst: 2})

	for i := range 2 {
		resp, _ := call(t, ts, http.MethodGet, "/health", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}
	resp, env := call(t, ts, http.MethodGet, "/health", nil)
	wantError(t, resp, env, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED")
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestCORS(t *testing.T) {
	_, ts := newTestServer(t, Config{AllowedOrigins: []string{"https://app.example"}})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/extract", nil)
	req.Header.Set("Origin", "https://app.example")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Errorf("preflight = %d %q", resp.StatusCode, resp.Header.Get("Access-Control-Allow-Origin"))
	}

	req.Header.Set("Origin", "https://evil.example")
	resp, err = ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("disallowed preflight = %d, want 403", resp.StatusCode)
	}
}
