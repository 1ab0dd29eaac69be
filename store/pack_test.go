package store

import (
	"testing"

	"adastore/blockhash"
)

func TestWritePackAndReadEntries(t *testing.T) {
	root := t.TempDir()
	h1, h2, h3 := testHash(1), testHash(2), testHash(3)
	data := map[blockhash.Hash][]byte{
		h1: []byte("block one"),
		h2: []byte("block two is a little longer"),
		h3: []byte("b3"),
	}
	load := func(h blockhash.Hash) ([]byte, error) { return data[h], nil }

	packID, offsets, err := writePack(root, []blockhash.Hash{h2, h1, h3}, load)
	if err != nil {
		t.Fatalf("writePack: %v", err)
	}
	if len(offsets) != 3 {
		t.Fatalf("expected 3 offsets, got %d", len(offsets))
	}

	count, err := readPackHeader(root, packID)
	if err != nil {
		t.Fatalf("readPackHeader: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected entry count 3, got %d", count)
	}

	for h, want := range data {
		got, err := readPackEntryAt(root, packID, offsets[h])
		if err != nil {
			t.Fatalf("readPackEntryAt(%x): %v", h, err)
		}
		if string(got) != string(want) {
			t.Fatalf("entry mismatch for %x: got %q want %q", h, got, want)
		}
	}
}

func TestWritePackMissingBlockFails(t *testing.T) {
	root := t.TempDir()
	h1 := testHash(1)
	load := func(h blockhash.Hash) ([]byte, error) { return nil, errBlockNotFound(h) }

	_, _, err := writePack(root, []blockhash.Hash{h1}, load)
	kind, ok := KindOf(err)
	if !ok || kind != KindMissingBlock {
		t.Fatalf("expected MissingBlock, got %v", err)
	}
}

func TestDeterministicPackID(t *testing.T) {
	root1, root2 := t.TempDir(), t.TempDir()
	h1, h2 := testHash(1), testHash(2)
	data := map[blockhash.Hash][]byte{h1: []byte("one"), h2: []byte("two")}
	load := func(h blockhash.Hash) ([]byte, error) { return data[h], nil }

	id1, _, err := writePack(root1, []blockhash.Hash{h1, h2}, load)
	if err != nil {
		t.Fatalf("writePack root1: %v", err)
	}
	id2, _, err := writePack(root2, []blockhash.Hash{h1, h2}, load)
	if err != nil {
		t.Fatalf("writePack root2: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected identical content to produce identical pack_id: %x != %x", id1, id2)
	}
}

func TestListPackFiles(t *testing.T) {
	root := t.TempDir()
	h1 := testHash(1)
	load := func(h blockhash.Hash) ([]byte, error) { return []byte("x"), nil }
	packID, _, err := writePack(root, []blockhash.Hash{h1}, load)
	if err != nil {
		t.Fatalf("writePack: %v", err)
	}

	ids, err := listPackFiles(root)
	if err != nil {
		t.Fatalf("listPackFiles: %v", err)
	}
	if len(ids) != 1 || ids[0] != packID {
		t.Fatalf("expected [%x], got %v", packID, ids)
	}
}

func TestDeletePack(t *testing.T) {
	root := t.TempDir()
	h1 := testHash(1)
	load := func(h blockhash.Hash) ([]byte, error) { return []byte("x"), nil }
	packID, _, err := writePack(root, []blockhash.Hash{h1}, load)
	if err != nil {
		t.Fatalf("writePack: %v", err)
	}
	if err := deletePack(root, packID); err != nil {
		t.Fatalf("deletePack: %v", err)
	}
	ids, err := listPackFiles(root)
	if err != nil {
		t.Fatalf("listPackFiles: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no packs after delete, got %v", ids)
	}
}
