package conn

import (
	"net"
	"testing"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

type fakeLobby struct {
	names   map[string]bool
	ipCount int
	full    bool
	open    bool
	banned  bool
}

func (f *fakeLobby) HasName(name string) bool          { return f.names[name] }
func (f *fakeLobby) CountFromIP(ip net.IP) int          { return f.ipCount }
func (f *fakeLobby) IsFull() bool                       { return f.full }
func (f *fakeLobby) IsOpen() bool                       { return f.open }
func (f *fakeLobby) IsBanned(name string, ip net.IP) bool { return f.banned }

func baseReq() protocol.ReqJoin {
	return protocol.ReqJoin{
		HostCounter: core.HostCounter(1),
		EntryKey:    core.EntryKey(0x1234),
		Name:        "Alice",
	}
}

func TestAdmitWrongHostCounter(t *testing.T) {
	req := baseReq()
	req.HostCounter = 99
	lobby := &fakeLobby{open: true}
	d := Admit(req, net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if d.Allow || d.Reason != protocol.RejectWrongHostCounter {
		t.Fatalf("expected RejectWrongHostCounter, got %+v", d)
	}
}

func TestAdmitWrongEntryKey(t *testing.T) {
	req := baseReq()
	req.EntryKey = 0
	lobby := &fakeLobby{open: true}
	d := Admit(req, net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if d.Allow || d.Reason != protocol.RejectWrongEntryKey {
		t.Fatalf("expected RejectWrongEntryKey, got %+v", d)
	}
}

func TestAdmitWaivesEntryKeyForBattleNet(t *testing.T) {
	req := baseReq()
	req.EntryKey = 0
	lobby := &fakeLobby{open: true}
	policy := DefaultPolicy()
	policy.WaiveEntryKey = true
	d := Admit(req, net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, policy)
	if !d.Allow {
		t.Fatalf("expected admit with waived entry key, got %+v", d)
	}
}

func TestAdmitVersionMismatch(t *testing.T) {
	lobby := &fakeLobby{open: true}
	d := Admit(baseReq(), net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), false, lobby, DefaultPolicy())
	if d.Allow || d.Reason != protocol.RejectWrongGameVersion {
		t.Fatalf("expected RejectWrongGameVersion, got %+v", d)
	}
}

func TestAdmitLobbyClosed(t *testing.T) {
	lobby := &fakeLobby{open: false}
	d := Admit(baseReq(), net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if d.Allow || d.Reason != protocol.RejectLobbyClosed {
		t.Fatalf("expected RejectLobbyClosed, got %+v", d)
	}
}

func TestAdmitBanned(t *testing.T) {
	lobby := &fakeLobby{open: true, banned: true}
	d := Admit(baseReq(), net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if d.Allow || d.Reason != protocol.RejectBanned {
		t.Fatalf("expected RejectBanned, got %+v", d)
	}
}

func TestAdmitNameTaken(t *testing.T) {
	lobby := &fakeLobby{open: true, names: map[string]bool{"Alice": true}}
	d := Admit(baseReq(), net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if d.Allow || d.Reason != protocol.RejectNameTaken {
		t.Fatalf("expected RejectNameTaken, got %+v", d)
	}
}

func TestAdmitCensorsUnsafeName(t *testing.T) {
	req := baseReq()
	req.Name = "Al|ce"
	lobby := &fakeLobby{open: true, names: map[string]bool{}}
	d := Admit(req, net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if !d.Allow {
		t.Fatalf("expected censor-and-admit, got %+v", d)
	}
	if d.SanitizedName == req.Name {
		t.Fatal("expected sanitized name to differ from the unsafe input")
	}
}

func TestAdmitDeniesUnsafeNameUnderDenyPolicy(t *testing.T) {
	req := baseReq()
	req.Name = "Al|ce"
	lobby := &fakeLobby{open: true, names: map[string]bool{}}
	policy := DefaultPolicy()
	policy.NameHandler = NameDeny
	d := Admit(req, net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, policy)
	if d.Allow || d.Reason != protocol.RejectNameTaken {
		t.Fatalf("expected deny under NameDeny policy, got %+v", d)
	}
}

func TestAdmitIPFlood(t *testing.T) {
	lobby := &fakeLobby{open: true, names: map[string]bool{}, ipCount: 5}
	d := Admit(baseReq(), net.ParseIP("8.8.8.8"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if d.Allow || d.Reason != protocol.RejectIPFlood {
		t.Fatalf("expected RejectIPFlood, got %+v", d)
	}
}

func TestAdmitLoopbackGetsHigherLimit(t *testing.T) {
	lobby := &fakeLobby{open: true, names: map[string]bool{}, ipCount: 5}
	d := Admit(baseReq(), net.ParseIP("127.0.0.1"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if !d.Allow {
		t.Fatalf("expected loopback to use MaxLoopback, got %+v", d)
	}
}

func TestAdmitFull(t *testing.T) {
	lobby := &fakeLobby{open: true, names: map[string]bool{}, full: true}
	d := Admit(baseReq(), net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if d.Allow || d.Reason != protocol.RejectGameFull {
		t.Fatalf("expected RejectGameFull, got %+v", d)
	}
}

func TestAdmitSucceeds(t *testing.T) {
	lobby := &fakeLobby{open: true, names: map[string]bool{}}
	d := Admit(baseReq(), net.ParseIP("1.2.3.4"), core.HostCounter(1), core.EntryKey(0x1234), true, lobby, DefaultPolicy())
	if !d.Allow {
		t.Fatalf("expected admit, got %+v", d)
	}
	if d.SanitizedName != "Alice" {
		t.Fatalf("expected name unchanged, got %q", d.SanitizedName)
	}
}
