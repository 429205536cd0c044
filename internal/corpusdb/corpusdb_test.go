package corpusdb

import (
	"path/filepath"
	"testing"
)

func TestStoreWriteReadRemove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	data := []byte("hello fuzzcheck")
	digest, err := store.Write(data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if digest != Digest(data) {
		t.Fatalf("digest mismatch: got %s, want %s", digest, Digest(data))
	}

	got, err := store.Read(digest)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("Read = %q, want %q", got, data)
	}

	if err := store.Remove(digest); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Read(digest); err == nil {
		t.Fatal("Read after Remove should fail")
	}
}

func TestDBUpsertListDelete(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	entry := Entry{Digest: "abc123", SizeBytes: 10, Complexity: 2.5, Kind: "corpus"}
	if err := db.Upsert(entry); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	entries, err := db.List("corpus")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Digest != "abc123" {
		t.Fatalf("List = %+v, want one entry abc123", entries)
	}

	if err := db.Delete("abc123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	entries, err = db.List("corpus")
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("List after delete = %+v, want empty", entries)
	}
}

func TestNoveltyFilterRecordThenSeen(t *testing.T) {
	f := NewNoveltyFilter(1000, 0.001)

	a := []byte("alpha")
	b := []byte("bravo")

	if f.Seen(a) {
		t.Fatal("Seen(a) = true before Record")
	}
	f.Record(a)
	if !f.Seen(a) {
		t.Fatal("Seen(a) = false after Record")
	}
	if f.Seen(b) {
		t.Fatal("Seen(b) = true, want false (never recorded)")
	}
}

func TestNoveltyFilterDefaultsOnInvalidSizing(t *testing.T) {
	f := NewNoveltyFilter(0, 0)
	if f.numBits == 0 || f.numHash == 0 {
		t.Fatalf("numBits=%d numHash=%d, want both nonzero after defaulting", f.numBits, f.numHash)
	}
}
