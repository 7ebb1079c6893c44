// internal/storage/local_test.go
//
// Tests for the filesystem backend: construction policy, round-trips,
// and the base-directory escape guard.  Everything runs under t.TempDir.

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/AdeptTravel/mediaplan/internal/workspace"
)

func TestNewLocal_RequiresBasePath(t *testing.T) {
	_, err := NewLocal(&workspace.LocalStorage{})
	if !errors.Is(err, ErrBasePathUnset) {
		t.Fatalf("want ErrBasePathUnset, got %v", err)
	}
}

func TestNewLocal_CreateIfMissing(t *testing.T) {
	base := filepath.Join(t.TempDir(), "plans")

	if _, err := NewLocal(&workspace.LocalStorage{BasePath: base, CreateIfMissing: true}); err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if _, err := os.Stat(base); err != nil {
		t.Fatalf("base directory not created: %v", err)
	}
}

func TestNewLocal_MissingBaseRefusedWithoutCreate(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nope")

	if _, err := NewLocal(&workspace.LocalStorage{BasePath: base}); err == nil {
		t.Fatalf("missing base directory should be refused when create_if_missing is off")
	}
}

func TestLocal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(&workspace.LocalStorage{BasePath: t.TempDir(), CreateIfMissing: true})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	key := "2026/q1/plan.json"
	payload := []byte(`{"campaign":"spring"}`)

	ok, err := l.Exists(ctx, key)
	if err != nil || ok {
		t.Fatalf("Exists before write = %v, %v", ok, err)
	}

	if err := l.Write(ctx, key, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ok, err = l.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v", ok, err)
	}

	got, err := l.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("Read = %q, want %q", got, payload)
	}
}

func TestLocal_ReadMissingKey(t *testing.T) {
	l, err := NewLocal(&workspace.LocalStorage{BasePath: t.TempDir(), CreateIfMissing: true})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	_, err = l.Read(context.Background(), "absent.json")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLocal_EscapeGuard(t *testing.T) {
	l, err := NewLocal(&workspace.LocalStorage{BasePath: t.TempDir(), CreateIfMissing: true})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"..", "../outside.json", "a/../../outside.json", "/etc/passwd"} {
		if err := l.Write(ctx, key, []byte("x")); err == nil {
			t.Fatalf("key %q should be refused", key)
		}
		if _, err := l.Read(ctx, key); err == nil {
			t.Fatalf("key %q should be refused", key)
		}
	}

	// Dotted segments that stay inside the base are fine.
	if err := l.Write(ctx, "a/../b.json", []byte("x")); err != nil {
		t.Fatalf("in-base relative key refused: %v", err)
	}
}

func TestLocal_List(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(&workspace.LocalStorage{BasePath: t.TempDir(), CreateIfMissing: true})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	for _, key := range []string{"2026/q1/a.json", "2026/q1/b.json", "2026/q2/c.json", "index.json"} {
		if err := l.Write(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("Write %s: %v", key, err)
		}
	}

	keys, err := l.List(ctx, "2026/q1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	sort.Strings(keys)
	want := []string{"2026/q1/a.json", "2026/q1/b.json"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}

	keys, err = l.List(ctx, "empty/prefix")
	if err != nil {
		t.Fatalf("List empty prefix: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("empty prefix should list nothing, got %v", keys)
	}
}
