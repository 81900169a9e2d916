package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quasilyte/gdata/v2"
)

func TestValidateSlot(t *testing.T) {
	tests := []struct {
		name    string
		slot    string
		wantErr bool
	}{
		{"默认槽位", "current", false},
		{"字母数字和符号", "run_2-b", false},
		{"空槽位", "", true},
		{"路径穿越", "../etc", true},
		{"包含空格", "my save", true},
		{"包含斜杠", "a/b", true},
		{"超长", strings.Repeat("a", 65), true},
		{"最大长度", strings.Repeat("a", 64), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateSlot(tt.slot); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlot(%q) error = %v, wantErr %v", tt.slot, err, tt.wantErr)
			}
		})
	}
}

// exerciseStore 对任意后端执行相同的读写删除流程
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	if _, err := s.Read("slot1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read on empty store: err = %v, want ErrNotFound", err)
	}

	if err := s.Write("slot1", []byte("first")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write("slot1", []byte("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if err := s.Write("slot2", []byte("other")); err != nil {
		t.Fatalf("Write slot2 failed: %v", err)
	}

	data, err := s.Read("slot1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, []byte("second")) {
		t.Errorf("Read = %q, want %q", data, "second")
	}

	if err := s.Delete("slot1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Read("slot1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after Delete: err = %v, want ErrNotFound", err)
	}
	if err := s.Delete("slot1"); err != nil {
		t.Errorf("deleting a missing slot should not fail: %v", err)
	}

	if data, err := s.Read("slot2"); err != nil || string(data) != "other" {
		t.Errorf("slot2 = %q, %v; want other", data, err)
	}

	if err := s.Write("../bad", []byte("x")); err == nil {
		t.Error("Write with invalid slot should fail")
	}
	if _, err := s.Read("../bad"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Read with invalid slot: err = %v, want validation error", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesData(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("abc")
	if err := s.Write("a", buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'

	data, _ := s.Read("a")
	if string(data) != "abc" {
		t.Errorf("stored data changed with caller buffer: %q", data)
	}
	data[1] = 'y'
	again, _ := s.Read("a")
	if string(again) != "abc" {
		t.Errorf("stored data changed with returned buffer: %q", again)
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	exerciseStore(t, s)
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Write("current", []byte("data")); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(dir, "current.sav")
	if s.Path("current") != want {
		t.Errorf("Path() = %s, want %s", s.Path("current"), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("save file not created: %v", err)
	}
	if _, err := os.Stat(want + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestGdataStore(t *testing.T) {
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	defer os.Setenv("HOME", originalHome)

	manager, err := gdata.Open(gdata.Config{
		AppName: "astrorun_store_test",
	})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}

	exerciseStore(t, NewGdataStore(manager))
}
