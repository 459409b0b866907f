package utils

import "testing"

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	added := s.Add("http://example.com")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("http://example.com")
	if added {
		t.Error("second Add of same key should return false")
	}

	if !s.Contains("http://example.com") {
		t.Error("Contains should report an added key")
	}
	if s.Contains("loja x|rua 1") {
		t.Error("Contains should not report a missing key")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}
