package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func countingLoader(calls *int) LoadFunc[string] {
	return func(path string) (string, error) {
		*calls++
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(string(data), "bad") {
			return "", errors.New("parse error")
		}
		return string(data), nil
	}
}

func TestFileCacheReloadsOnModTimeChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, path, "one", base)

	calls := 0
	c := NewFileCache(NewManager(nil), path, countingLoader(&calls))

	for range 3 {
		got, err := c.Get()
		if err != nil || got != "one" {
			t.Fatalf("Get = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}

	// Content changes but mtime does not: the stale snapshot is kept
	writeFile(t, path, "two", base)
	if got, _ := c.Get(); got != "one" {
		t.Errorf("Get = %q, want cached snapshot", got)
	}

	writeFile(t, path, "two", base.Add(time.Second))
	if got, _ := c.Get(); got != "two" {
		t.Errorf("Get = %q, want reloaded snapshot", got)
	}
	if calls != 2 {
		t.Errorf("loader called %d times, want 2", calls)
	}
}

func TestFileCacheClearsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, path, "good", base)

	calls := 0
	c := NewFileCache(NewManager(nil), path, countingLoader(&calls))
	if got, err := c.Get(); err != nil || got != "good" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	writeFile(t, path, "bad content", base.Add(time.Second))
	if got, err := c.Get(); err == nil || got != "" {
		t.Errorf("Get = %q, %v; want cleared cache and error", got, err)
	}

	writeFile(t, path, "good again", base.Add(2*time.Second))
	if got, err := c.Get(); err != nil || got != "good again" {
		t.Errorf("Get = %q, %v", got, err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if got, err := c.Get(); err == nil || got != "" {
		t.Errorf("missing file: Get = %q, %v", got, err)
	}
}

func TestManagerInvalidateAll(t *testing.T) {
	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(func(string) (time.Time, error) { return mtime, nil })

	callsA, callsB := 0, 0
	a := NewFileCache(m, "a", func(string) (int, error) { callsA++; return 1, nil })
	b := NewFileCache(m, "b", func(string) (int, error) { callsB++; return 2, nil })

	a.Get()
	b.Get()
	a.Get()
	m.InvalidateAll()
	a.Get()
	b.Get()

	if callsA != 2 || callsB != 2 {
		t.Errorf("calls = %d/%d, want 2/2", callsA, callsB)
	}
	if a.Path() != "a" {
		t.Errorf("Path = %q", a.Path())
	}
}
