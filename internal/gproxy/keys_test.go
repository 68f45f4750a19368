package gproxy

import "testing"

func TestDeriveReconnectKeyIsDeterministicPerUID(t *testing.T) {
	var salt [32]byte
	for i := range salt {
		salt[i] = byte(i)
	}
	k1 := DeriveReconnectKey(salt, 3)
	k2 := DeriveReconnectKey(salt, 3)
	if k1 != k2 {
		t.Fatalf("expected deterministic key for the same (salt, uid), got %d vs %d", k1, k2)
	}
}

func TestDeriveReconnectKeyDiffersByUID(t *testing.T) {
	var salt [32]byte
	for i := range salt {
		salt[i] = byte(i)
	}
	if DeriveReconnectKey(salt, 3) == DeriveReconnectKey(salt, 4) {
		t.Fatalf("expected different uids to derive different keys")
	}
}
