package realm

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/wc3hostbot/core/internal/core"
)

func TestIssueThenVerifyWaiverRoundTrips(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	handle := core.NewGameHandle()
	issuer := NewIssuer(key, "useast", time.Minute)

	token, err := issuer.IssueWaiver(handle, "Player#1234")
	if err != nil {
		t.Fatalf("IssueWaiver: %v", err)
	}

	verifier := NewVerifier(map[string]*ecdsa.PublicKey{"useast": &key.PublicKey})
	tag, err := verifier.Verify(token, handle)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if tag != "Player#1234" {
		t.Fatalf("expected BattleTag Player#1234, got %q", tag)
	}
}

func TestVerifyRejectsUntrustedRealm(t *testing.T) {
	key, _ := GenerateKey()
	other, _ := GenerateKey()
	handle := core.NewGameHandle()
	issuer := NewIssuer(key, "useast", time.Minute)

	token, err := issuer.IssueWaiver(handle, "Player#1234")
	if err != nil {
		t.Fatalf("IssueWaiver: %v", err)
	}

	verifier := NewVerifier(map[string]*ecdsa.PublicKey{"euwest": &other.PublicKey})
	if _, err := verifier.Verify(token, handle); err == nil {
		t.Fatalf("expected verification to fail for an untrusted realm name")
	}
}

func TestVerifyRejectsWrongGameHandle(t *testing.T) {
	key, _ := GenerateKey()
	handle := core.NewGameHandle()
	other := core.NewGameHandle()
	issuer := NewIssuer(key, "useast", time.Minute)

	token, err := issuer.IssueWaiver(handle, "Player#1234")
	if err != nil {
		t.Fatalf("IssueWaiver: %v", err)
	}

	verifier := NewVerifier(map[string]*ecdsa.PublicKey{"useast": &key.PublicKey})
	if _, err := verifier.Verify(token, other); err == nil {
		t.Fatalf("expected verification to fail when the waiver was issued for a different game")
	}
}

func TestVerifyRejectsExpiredWaiver(t *testing.T) {
	key, _ := GenerateKey()
	handle := core.NewGameHandle()
	issuer := NewIssuer(key, "useast", -time.Minute)

	token, err := issuer.IssueWaiver(handle, "Player#1234")
	if err != nil {
		t.Fatalf("IssueWaiver: %v", err)
	}

	verifier := NewVerifier(map[string]*ecdsa.PublicKey{"useast": &key.PublicKey})
	if _, err := verifier.Verify(token, handle); err == nil {
		t.Fatalf("expected verification to fail for an already-expired waiver")
	}
}
