package security

import (
	"testing"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4)
	password := []byte("Passw0rd!")
	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash returned empty")
	}
	if err := h.Compare(hash, password); err != nil {
		t.Fatalf("Compare: %v", err)
	}
}

func TestHasher_CompareWrongPassword(t *testing.T) {
	h := NewHasher(4)
	hash, _ := h.Hash([]byte("Passw0rd!"))
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Fatal("Compare with wrong password should fail")
	}
}

func TestHasher_HashIsSalted(t *testing.T) {
	h := NewHasher(4)
	first, err := h.Hash([]byte("Passw0rd!"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash([]byte("Passw0rd!"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password should differ (per-call salt)")
	}
}

func TestHasher_CostSurvivesChange(t *testing.T) {
	// A hash produced at one cost must still verify with a Hasher at another.
	old := NewHasher(4)
	hash, _ := old.Hash([]byte("Passw0rd!"))
	current := NewHasher(6)
	if err := current.Compare(hash, []byte("Passw0rd!")); err != nil {
		t.Fatalf("Compare across cost change: %v", err)
	}
}

func TestHasher_Cost(t *testing.T) {
	h := NewHasher(12)
	if h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	h0 := NewHasher(0)
	if h0.Cost < 4 {
		t.Errorf("zero cost should be clamped to at least MinCost, got %d", h0.Cost)
	}
}
