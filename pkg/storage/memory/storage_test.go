// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package memory

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-pkcs8/pkg/storage"
)

// TestNew verifies that New() creates an empty storage backend.
func TestNew(t *testing.T) {
	store := New()
	if store == nil {
		t.Fatal("New() returned nil")
	}

	keys, err := store.List("")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("New store should be empty, got %d keys", len(keys))
	}
}

func TestPutGet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   []byte
		wantErr error
	}{
		{name: "container", key: "keys/alice", value: []byte{0x30, 0x03, 0x02, 0x01, 0x00}},
		{name: "empty value", key: "keys/empty", value: []byte{}},
		{name: "nested", key: "keys/team/bob", value: []byte("nested")},
		{name: "empty key", key: "", value: []byte("x"), wantErr: storage.ErrInvalidID},
		{name: "traversal", key: "keys/../../etc/passwd", value: []byte("x"), wantErr: storage.ErrInvalidID},
		{name: "absolute", key: "/etc/passwd", value: []byte("x"), wantErr: storage.ErrInvalidID},
	}

	store := New()
	defer store.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Put(tt.key, tt.value, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Put() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			got, err := store.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !bytes.Equal(got, tt.value) {
				t.Errorf("Get() = %v, want %v", got, tt.value)
			}
		})
	}
}

// TestOverwriteZeroesPrevious verifies the old value is wiped in place.
func TestOverwriteZeroesPrevious(t *testing.T) {
	s := New().(*Storage)
	defer s.Close()

	if err := s.Put("keys/a", []byte{1, 2, 3}, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	old := s.data["keys/a"]

	if err := s.Put("keys/a", []byte{4, 5}, nil); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	if !bytes.Equal(old, []byte{0, 0, 0}) {
		t.Errorf("previous value not zeroed: %v", old)
	}

	got, err := s.Get("keys/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, []byte{4, 5}) {
		t.Errorf("Get() = %v, want [4 5]", got)
	}
}

func TestDeleteZeroes(t *testing.T) {
	s := New().(*Storage)
	defer s.Close()

	if err := s.Put("keys/a", []byte{9, 9}, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	held := s.data["keys/a"]

	if err := s.Delete("keys/a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !bytes.Equal(held, []byte{0, 0}) {
		t.Errorf("deleted value not zeroed: %v", held)
	}

	if _, err := s.Get("keys/a"); err != storage.ErrNotFound {
		t.Errorf("Get() after Delete() error = %v, want %v", err, storage.ErrNotFound)
	}
	if err := s.Delete("keys/a"); err != storage.ErrNotFound {
		t.Errorf("second Delete() error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestCloseZeroes(t *testing.T) {
	s := New().(*Storage)
	if err := s.Put("keys/a", []byte{7}, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	held := s.data["keys/a"]

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if held[0] != 0 {
		t.Error("value not zeroed on Close()")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestList(t *testing.T) {
	store := New()
	defer store.Close()

	for _, key := range []string{"keys/c", "keys/a", "keys/b", "meta/x"} {
		if err := store.Put(key, []byte(key), nil); err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}

	got, err := store.List(storage.KeyPrefix)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"keys/a", "keys/b", "keys/c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	all, err := store.List("")
	if err != nil {
		t.Fatalf("List(\"\") error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List(\"\") returned %d keys, want 4", len(all))
	}
}

// TestDefensiveCopies verifies that callers never share memory with the store.
func TestDefensiveCopies(t *testing.T) {
	store := New()
	defer store.Close()

	value := []byte{1, 2, 3}
	if err := store.Put("keys/a", value, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	value[0] = 0xff

	got, err := store.Get("keys/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got[0] != 1 {
		t.Error("Put() did not copy the value")
	}
	got[1] = 0xff

	again, _ := store.Get("keys/a")
	if again[1] != 2 {
		t.Error("Get() returned internal storage")
	}
}

func TestClosedStorage(t *testing.T) {
	store := New()
	store.Close()

	if _, err := store.Get("keys/a"); err != storage.ErrClosed {
		t.Errorf("Get() error = %v, want %v", err, storage.ErrClosed)
	}
	if err := store.Put("keys/a", []byte{1}, nil); err != storage.ErrClosed {
		t.Errorf("Put() error = %v, want %v", err, storage.ErrClosed)
	}
	if err := store.Delete("keys/a"); err != storage.ErrClosed {
		t.Errorf("Delete() error = %v, want %v", err, storage.ErrClosed)
	}
	if _, err := store.List(""); err != storage.ErrClosed {
		t.Errorf("List() error = %v, want %v", err, storage.ErrClosed)
	}
	if _, err := store.Exists("keys/a"); err != storage.ErrClosed {
		t.Errorf("Exists() error = %v, want %v", err, storage.ErrClosed)
	}
}

func TestConcurrentOperations(t *testing.T) {
	store := New()
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("keys/%d", i)
			if err := store.Put(key, []byte{byte(i)}, nil); err != nil {
				t.Errorf("Put(%q) error = %v", key, err)
				return
			}
			if _, err := store.Get(key); err != nil {
				t.Errorf("Get(%q) error = %v", key, err)
			}
			if _, err := store.List(storage.KeyPrefix); err != nil {
				t.Errorf("List() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	keys, err := store.List(storage.KeyPrefix)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 20 {
		t.Errorf("List() returned %d keys, want 20", len(keys))
	}
}
