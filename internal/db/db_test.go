package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestKV_SetGetOverwrite(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()

	if _, err := d.Get(ctx, "auth.session"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty db error = %v, want ErrNotFound", err)
	}
	if err := d.Set(ctx, "auth.session", []byte(`{"token":"a"}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := d.Set(ctx, "auth.session", []byte(`{"token":"b"}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, err := d.Get(ctx, "auth.session")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != `{"token":"b"}` {
		t.Fatalf("Get = %s, want overwritten value", got)
	}
}

func TestKV_DeleteManyIgnoresMissing(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()

	for _, k := range []string{"rememberedEmail", "rememberedPassword", "keep"} {
		if err := d.Set(ctx, k, []byte(k)); err != nil {
			t.Fatalf("Set(%s) returned error: %v", k, err)
		}
	}
	if err := d.Delete(ctx, "rememberedEmail", "rememberedPassword", "never-set"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := d.Get(ctx, "rememberedEmail"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rememberedEmail still present: %v", err)
	}
	if v, err := d.Get(ctx, "keep"); err != nil || string(v) != "keep" {
		t.Fatalf("keep = %q, %v, want keep", v, err)
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := d.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	_ = d.Close()

	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer d.Close()
	if v, err := d.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Fatalf("Get after reopen = %q, %v, want v", v, err)
	}
}
