package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	info, err := store.Put(ctx, "licenses/org-1/license.pdf", strings.NewReader("pdf-bytes"), PutOptions{
		ContentType: "application/pdf",
		Metadata:    map[string]string{"organization_id": "org-1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("pdf-bytes")) || info.ContentType != "application/pdf" || info.ETag == "" {
		t.Fatalf("put info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "licenses/org-1/license.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(data) != "pdf-bytes" {
		t.Fatalf("get payload: %q, %v", data, err)
	}
	if got.ETag != info.ETag || got.Metadata["organization_id"] != "org-1" {
		t.Fatalf("get info: %+v", got)
	}

	head, err := store.Head(ctx, "licenses/org-1/license.pdf")
	if err != nil || head.Size != info.Size {
		t.Fatalf("head: %+v, %v", head, err)
	}
}

func TestFSStorePutIsCreateOnly(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "doc", strings.NewReader("one"), PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "doc", strings.NewReader("two"), PutOptions{}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists on second put, got %v", err)
	}
	_, rc, err := store.Get(ctx, "doc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "one" {
		t.Fatalf("original content replaced: %q", data)
	}
}

func TestFSStoreKeySanitization(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "  ", "/abs/path", "../escape", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestFSStoreDeleteAndList(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"licenses/org-1/a.pdf", "licenses/org-2/b.pdf", "other/c.bin"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "licenses/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "licenses/org-1/a.pdf" || infos[1].Key != "licenses/org-2/b.pdf" {
		t.Fatalf("list: %+v", infos)
	}

	ok, err := store.Delete(ctx, "licenses/org-1/a.pdf")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "licenses/org-1/a.pdf")
	if err != nil || ok {
		t.Fatalf("second delete should be a no-op: %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "licenses/org-1/a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFSStorePresignURL(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	url, err := store.PresignURL(ctx, "licenses/org-1/a.pdf", SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://local.blob/") {
		t.Fatalf("url: %s", url)
	}
	if _, err := store.PresignURL(ctx, "licenses/org-1/a.pdf", SignedURLOptions{Method: "PUT"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for PUT, got %v", err)
	}
}
