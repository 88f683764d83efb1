package store

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "primenet.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "primenet.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestSettingsCRUD(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.Get(KeyGUID); err != nil || ok {
		t.Fatalf("unset key: ok=%v err=%v, want absent", ok, err)
	}

	if err := s.Set(KeyGUID, "0123456789abcdef0123456789abcdef"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := s.Get(KeyGUID)
	if err != nil || !ok || v != "0123456789abcdef0123456789abcdef" {
		t.Fatalf("Get = %q/%v/%v", v, ok, err)
	}

	// Upsert replaces.
	if err := s.Set(KeyGUID, "replacement"); err != nil {
		t.Fatalf("Set (replace) failed: %v", err)
	}
	if v, _, _ := s.Get(KeyGUID); v != "replacement" {
		t.Errorf("Get after replace = %q", v)
	}

	if err := s.Delete(KeyGUID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get(KeyGUID); ok {
		t.Error("key still present after Delete")
	}
}

func TestTypedSettings(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetFloat(KeyUsecPerIter, 6.91); err != nil {
		t.Fatal(err)
	}
	f, ok, err := s.GetFloat(KeyUsecPerIter)
	if err != nil || !ok || f != 6.91 {
		t.Errorf("GetFloat = %v/%v/%v, want 6.91", f, ok, err)
	}

	if b, err := s.GetBool(KeyNoMoreWork); err != nil || b {
		t.Errorf("unset bool = %v/%v, want false", b, err)
	}
	if err := s.SetBool(KeyNoMoreWork, true); err != nil {
		t.Fatal(err)
	}
	if b, _ := s.GetBool(KeyNoMoreWork); !b {
		t.Error("SetBool(true) not persisted")
	}
}

func TestGUIDPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "primenet.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyGUID, "feedfacefeedfacefeedfacefeedface"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	guid, err := s2.GUID()
	if err != nil || guid != "feedfacefeedfacefeedfacefeedface" {
		t.Errorf("GUID after reopen = %q/%v", guid, err)
	}
}
