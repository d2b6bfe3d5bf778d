package index

import (
	"errors"
	"testing"

	apperrors "github.com/devashish-g/titleseek/pkg/errors"
)

func TestStoreSequentialIDs(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		id := s.Add("doc")
		if id != uint32(i) {
			t.Fatalf("expected id %d, got %d", i, id)
		}
	}
	if s.Len() != 5 {
		t.Fatalf("expected 5 documents, got %d", s.Len())
	}
}

func TestStoreGet(t *testing.T) {
	s := NewStore()
	id := s.Add("The Matrix")
	text, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get(%d) returned error: %v", id, err)
	}
	if text != "The Matrix" {
		t.Fatalf("Get(%d) = %q, want %q", id, text, "The Matrix")
	}
}

func TestStoreGetNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Get(42)
	if !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
