package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	info, err := store.Put(ctx, "invoices/test.txt", strings.NewReader("hello"), PutOptions{
		ContentType: "text/plain",
		Metadata:    map[string]string{"match_id": "m1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != 5 {
		t.Errorf("Expected size 5, got %d", info.Size)
	}
	if len(info.URL) == 0 {
		t.Error("Expected a non-empty URL for a stored document")
	}

	// writes are create-only
	_, err = store.Put(ctx, "invoices/test.txt", strings.NewReader("other"), PutOptions{})
	if err == nil {
		t.Error("Expected Put on an existing key to fail")
	}

	got, rc, err := store.Get(ctx, "invoices/test.txt")
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte("hello")) {
		t.Errorf("Expected stored content 'hello', got %q", data)
	}
	if got.ContentType != "text/plain" {
		t.Errorf("Expected content type 'text/plain', got %q", got.ContentType)
	}

	head, err := store.Head(ctx, "invoices/test.txt")
	if err != nil {
		t.Fatal(err)
	}
	if head.Size != 5 {
		t.Errorf("Expected head size 5, got %d", head.Size)
	}
	if head.Metadata["match_id"] != "m1" {
		t.Errorf("Expected metadata to round-trip, got %v", head.Metadata)
	}

	_, err = store.Head(ctx, "invoices/absent.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for absent key, got %v", err)
	}

	ok, err := store.Delete(ctx, "invoices/test.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Expected Delete to report an existing key")
	}
	ok, err = store.Delete(ctx, "invoices/test.txt")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Expected Delete on an absent key to report false")
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemory())
}

func TestFilesystemStore(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, store)
}

func TestKeySanitization(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"", "  ", "/absolute", "../escape", "a/../../escape"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		if err == nil {
			t.Errorf("Expected Put with key %q to fail", key)
		}
	}
}
