package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetchURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "importer" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/exports/ci_20210501_001.zip" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("zip-bytes"))
	}))
	defer server.Close()

	client := NewClient("importer", "secret", "socimport/1.0", 5*time.Second)

	data, err := client.Fetch(context.Background(), server.URL+"/exports/ci_20210501_001.zip")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "zip-bytes" {
		t.Errorf("Expected 'zip-bytes', got %q", string(data))
	}
}

func TestFetchURLNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("", "", "socimport/1.0", 5*time.Second)

	_, err := client.Fetch(context.Background(), server.URL+"/missing.zip")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for HTTP 404, got %v", err)
	}
}

func TestFetchURLServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("", "", "socimport/1.0", 5*time.Second)

	_, err := client.Fetch(context.Background(), server.URL+"/broken.zip")
	if err == nil {
		t.Fatal("Expected an error for HTTP 500")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("A server error must not be reported as not-found")
	}
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ci_20210501_001.zip")
	if err := os.WriteFile(path, []byte("local-bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	client := NewClient("", "", "socimport/1.0", 5*time.Second)

	data, err := client.Fetch(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "local-bytes" {
		t.Errorf("Expected 'local-bytes', got %q", string(data))
	}

	_, err = client.Fetch(context.Background(), filepath.Join(dir, "missing.zip"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a missing local file, got %v", err)
	}
}
