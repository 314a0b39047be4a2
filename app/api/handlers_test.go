package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mediapulse/socimport/app/fetch"
	"github.com/mediapulse/socimport/app/flattener"
	"github.com/mediapulse/socimport/app/importer"
	"github.com/mediapulse/socimport/app/provider"
)

type fakeImporter struct {
	result importer.Result
	err    error
	calls  int
}

func (f *fakeImporter) ImportOne(ctx context.Context, def *provider.Definition, date string, sequence int) (importer.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeImportLog struct {
	filenames []string
}

func (f *fakeImportLog) Contains(filename string) (bool, error) { return false, nil }
func (f *fakeImportLog) Add(filename string) error              { return nil }
func (f *fakeImportLog) Count() (int, error)                    { return len(f.filenames), nil }
func (f *fakeImportLog) ImportedOn(date string) ([]string, error) {
	return f.filenames, nil
}

type fakePostStore struct{}

func (f *fakePostStore) StoreBatch(records []flattener.FlatRecord) error { return nil }
func (f *fakePostStore) Count() (int, error)                             { return 42, nil }

func testServer(imp *fakeImporter, importLog *fakeImportLog) http.Handler {
	definitions := map[string]*provider.Definition{
		"collective_intel": {
			Provider: provider.Info{
				Name:       "collective_intel",
				BaseURL:    "https://feeds.example.com/exports",
				FilePrefix: "ci_",
			},
			Settings: provider.Settings{Enabled: true, MaxDailyFiles: 5},
		},
	}

	handler := NewHandler(nil, nil, importLog, &fakePostStore{}, imp, nil, definitions)
	return NewServer(handler, "test-key")
}

func postImport(t *testing.T, server http.Handler, apiKey string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestTriggerImport(t *testing.T) {
	imp := &fakeImporter{
		result: importer.Result{
			Filename: "ci_20210501_002.zip",
			Status:   importer.StatusImported,
			Records:  10,
		},
	}
	server := testServer(imp, &fakeImportLog{})

	w := postImport(t, server, "test-key", ImportRequest{
		Provider: "collective_intel",
		Date:     "20210501",
		Number:   2,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if imp.calls != 1 {
		t.Errorf("Expected 1 import call, got %d", imp.calls)
	}
}

func TestTriggerImportValidation(t *testing.T) {
	tests := []struct {
		name string
		body ImportRequest
		want int
	}{
		{
			name: "Unknown provider",
			body: ImportRequest{Provider: "nope", Date: "20210501", Number: 1},
			want: http.StatusNotFound,
		},
		{
			name: "Bad date",
			body: ImportRequest{Provider: "collective_intel", Date: "2021-05-01", Number: 1},
			want: http.StatusBadRequest,
		},
		{
			name: "Sequence out of range",
			body: ImportRequest{Provider: "collective_intel", Date: "20210501", Number: 1000},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := &fakeImporter{}
			server := testServer(imp, &fakeImportLog{})

			w := postImport(t, server, "test-key", tt.body)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if imp.calls != 0 {
				t.Errorf("Expected no import call for invalid input, got %d", imp.calls)
			}
		})
	}
}

func TestTriggerImportStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		result importer.Result
		err    error
		want   int
	}{
		{
			name:   "Already imported",
			result: importer.Result{Status: importer.StatusSkipped},
			want:   http.StatusConflict,
		},
		{
			name:   "Not published",
			result: importer.Result{Status: importer.StatusFailed},
			err:    fmt.Errorf("%w: ci_20210501_009.zip", fetch.ErrNotFound),
			want:   http.StatusNotFound,
		},
		{
			name:   "Parse error",
			result: importer.Result{Status: importer.StatusFailed},
			err:    &flattener.ParseError{Field: "published_on", Value: "x", Reason: "not a valid timestamp"},
			want:   http.StatusUnprocessableEntity,
		},
		{
			name:   "Commit failure",
			result: importer.Result{Status: importer.StatusFailed},
			err:    fmt.Errorf("failed to load: connection reset"),
			want:   http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testServer(&fakeImporter{result: tt.result, err: tt.err}, &fakeImportLog{})

			w := postImport(t, server, "test-key", ImportRequest{
				Provider: "collective_intel",
				Date:     "20210501",
				Number:   2,
			})
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	server := testServer(&fakeImporter{}, &fakeImportLog{})

	w := postImport(t, server, "", ImportRequest{
		Provider: "collective_intel",
		Date:     "20210501",
		Number:   2,
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without API key, got %d", w.Code)
	}

	w = postImport(t, server, "wrong-key", ImportRequest{
		Provider: "collective_intel",
		Date:     "20210501",
		Number:   2,
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong API key, got %d", w.Code)
	}
}

func TestListImports(t *testing.T) {
	importLog := &fakeImportLog{filenames: []string{"ci_20210501_001.zip", "ci_20210501_002.zip"}}
	server := testServer(&fakeImporter{}, importLog)

	req := httptest.NewRequest(http.MethodGet, "/api/imports?date=20210501", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Date      string   `json:"date"`
		Filenames []string `json:"filenames"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Filenames) != 2 {
		t.Errorf("Expected 2 filenames, got %d", len(resp.Filenames))
	}
}
