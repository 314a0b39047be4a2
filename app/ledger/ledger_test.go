package ledger

import (
	"errors"
	"testing"
	"time"
)

type fakeImportLog struct {
	entries map[string]bool
	failing bool
	queries int
	adds    int
}

func newFakeImportLog() *fakeImportLog {
	return &fakeImportLog{entries: make(map[string]bool)}
}

func (f *fakeImportLog) Contains(filename string) (bool, error) {
	f.queries++
	if f.failing {
		return false, errors.New("connection refused")
	}
	return f.entries[filename], nil
}

func (f *fakeImportLog) Add(filename string) error {
	f.adds++
	if f.failing {
		return errors.New("connection refused")
	}
	f.entries[filename] = true
	return nil
}

func (f *fakeImportLog) Count() (int, error) {
	return len(f.entries), nil
}

func (f *fakeImportLog) ImportedOn(date string) ([]string, error) {
	return nil, nil
}

type fakeCache struct {
	values  map[string]string
	failing bool
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(key string) (string, error) {
	f.gets++
	if f.failing {
		return "", errors.New("redis down")
	}
	return f.values[key], nil
}

func (f *fakeCache) Set(key, value string, ttl time.Duration) error {
	f.sets++
	if f.failing {
		return errors.New("redis down")
	}
	f.values[key] = value
	return nil
}

func TestIsImported(t *testing.T) {
	repo := newFakeImportLog()
	repo.entries["ci_20210501_001.zip"] = true

	l := New(repo, nil)

	if !l.IsImported("ci_20210501_001.zip") {
		t.Error("Expected logged file to be reported as imported")
	}
	if l.IsImported("ci_20210501_002.zip") {
		t.Error("Expected unlogged file to be reported as not imported")
	}
}

func TestIsImportedFailsSafe(t *testing.T) {
	repo := newFakeImportLog()
	repo.failing = true

	l := New(repo, nil)

	// A store fault must read as "already imported" so the file is skipped
	// instead of risking a duplicate load.
	if !l.IsImported("ci_20210501_001.zip") {
		t.Error("Expected a failing import log to report the file as imported")
	}
}

func TestMarkImported(t *testing.T) {
	repo := newFakeImportLog()
	l := New(repo, nil)

	if err := l.MarkImported("ci_20210501_001.zip"); err != nil {
		t.Fatal(err)
	}
	if !repo.entries["ci_20210501_001.zip"] {
		t.Error("Expected filename to be recorded in the import log")
	}

	repo.failing = true
	if err := l.MarkImported("ci_20210501_002.zip"); err == nil {
		t.Error("Expected an error when the import log write fails")
	}
}

func TestCacheShortCircuitsLookup(t *testing.T) {
	repo := newFakeImportLog()
	c := newFakeCache()
	c.values["imported:ci_20210501_001.zip"] = "1"

	l := New(repo, c)

	if !l.IsImported("ci_20210501_001.zip") {
		t.Error("Expected cached filename to be reported as imported")
	}
	if repo.queries != 0 {
		t.Errorf("Expected no database query on cache hit, got %d", repo.queries)
	}
}

func TestNegativeAnswersNotCached(t *testing.T) {
	repo := newFakeImportLog()
	c := newFakeCache()

	l := New(repo, c)

	if l.IsImported("ci_20210501_001.zip") {
		t.Fatal("Expected unlogged file to be reported as not imported")
	}
	if c.sets != 0 {
		t.Errorf("Expected no cache write for a negative answer, got %d", c.sets)
	}
}

func TestCacheFaultFallsThroughToDatabase(t *testing.T) {
	repo := newFakeImportLog()
	repo.entries["ci_20210501_001.zip"] = true
	c := newFakeCache()
	c.failing = true

	l := New(repo, c)

	if !l.IsImported("ci_20210501_001.zip") {
		t.Error("Expected database answer despite cache fault")
	}
	if repo.queries != 1 {
		t.Errorf("Expected exactly one database query, got %d", repo.queries)
	}
}

func TestMarkImportedPopulatesCache(t *testing.T) {
	repo := newFakeImportLog()
	c := newFakeCache()

	l := New(repo, c)

	if err := l.MarkImported("ci_20210501_001.zip"); err != nil {
		t.Fatal(err)
	}
	if c.values["imported:ci_20210501_001.zip"] != "1" {
		t.Error("Expected cache entry after marking a file as imported")
	}
}
