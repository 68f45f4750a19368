package game

import (
	"net"
	"testing"

	"github.com/wc3hostbot/core/internal/conn"
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
	"github.com/wc3hostbot/core/internal/slot"
)

func newTestGame() *Game {
	m := Map{
		Path:           "Maps\\Download\\test.w3x",
		Data:           make([]byte, 4000),
		CRC32:          0xdeadbeef,
		BlizzHash:      0xcafef00d,
		Layout:         slot.Layout{ModernVersion: true, NumTeams: 2},
		MinGameVersion: 110,
	}
	cfg := DefaultConfig()
	return New(1, 0xC0FFEE, m, cfg, "host", "", 0)
}

func reqJoin(hc core.HostCounter, key core.EntryKey, name string) protocol.ReqJoin {
	return protocol.ReqJoin{HostCounter: hc, EntryKey: key, Name: name, InternalIP: [4]byte{10, 0, 0, 1}}
}

func TestJoinSucceedsAndEmitsSlotInfoJoinPlayerInfoMapCheck(t *testing.T) {
	g := newTestGame()
	res, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy())
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected accepted join")
	}
	if len(res.Messages) != 2 { // SLOTINFOJOIN + MAPCHECK, no peers yet
		t.Fatalf("expected 2 messages for first joiner, got %d", len(res.Messages))
	}
	if _, ok := g.Users[res.UID]; !ok {
		t.Fatalf("expected user registered under uid %d", res.UID)
	}
}

func TestJoinRejectsWrongHostCounter(t *testing.T) {
	g := newTestGame()
	res, err := g.Join(reqJoin(999, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy())
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if res.Accepted {
		t.Fatalf("expected rejection for wrong host_counter")
	}
}

func TestJoinSecondPlayerExchangesPlayerInfoWithFirst(t *testing.T) {
	g := newTestGame()
	first, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy())
	if err != nil || !first.Accepted {
		t.Fatalf("first join failed: %v %+v", err, first)
	}
	second, err := g.Join(reqJoin(1, 0xC0FFEE, "Bob"), net.ParseIP("5.6.7.8"), [4]byte{5, 6, 7, 8}, 6112, true, conn.DefaultPolicy())
	if err != nil || !second.Accepted {
		t.Fatalf("second join failed: %v %+v", err, second)
	}
	// SLOTINFOJOIN + 2 PLAYERINFO (one to each direction) + MAPCHECK
	if len(second.Messages) != 4 {
		t.Fatalf("expected 4 messages for second joiner, got %d", len(second.Messages))
	}
}

func TestJoinRejectsDuplicateName(t *testing.T) {
	g := newTestGame()
	if res, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy()); err != nil || !res.Accepted {
		t.Fatalf("first join failed: %v %+v", err, res)
	}
	res, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("9.9.9.9"), [4]byte{9, 9, 9, 9}, 6112, true, conn.DefaultPolicy())
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if res.Accepted {
		t.Fatalf("expected rejection for duplicate name")
	}
}

func TestLobbyTimeoutEndsGame(t *testing.T) {
	g := newTestGame()
	out, err := g.Tick(core.Tick(g.Config.LobbyTimeoutMS + 1))
	if err != nil {
		t.Fatalf("Tick error: %v", err)
	}
	_ = out
	if g.Phase != PhaseEnded {
		t.Fatalf("expected PhaseEnded after lobby timeout, got %s", g.Phase)
	}
}

func TestKickWithoutPendingActionDeliversImmediately(t *testing.T) {
	g := newTestGame()
	res, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy())
	if err != nil || !res.Accepted {
		t.Fatalf("join failed: %v %+v", err, res)
	}
	msgs, err := g.Kick(res.UID, KickAbuser)
	if err != nil {
		t.Fatalf("Kick error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one immediate PLAYERLEAVE_OTHERS, got %d", len(msgs))
	}
	if _, ok := g.Users[res.UID]; ok {
		t.Fatalf("expected user removed")
	}
}

func TestKickWithPendingActionDefersUntilFrameCallback(t *testing.T) {
	g := newTestGame()
	res, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy())
	if err != nil || !res.Accepted {
		t.Fatalf("join failed: %v %+v", err, res)
	}
	// A second user keeps the game from ending on the tick that delivers
	// the deferred leaver message.
	other, err := g.Join(reqJoin(1, 0xC0FFEE, "Bob"), net.ParseIP("5.6.7.8"), [4]byte{5, 6, 7, 8}, 6112, true, conn.DefaultPolicy())
	if err != nil || !other.Accepted {
		t.Fatalf("second join failed: %v %+v", err, other)
	}
	g.Phase = PhasePlaying
	g.Actions.QueueAction(res.UID, []byte{0x09, 0x01}, toStdTime(0))

	msgs, err := g.Kick(res.UID, KickHighPing)
	if err != nil {
		t.Fatalf("Kick error: %v", err)
	}
	if msgs != nil {
		t.Fatalf("expected deferred kick to return no immediate messages, got %v", msgs)
	}

	out, err := g.Tick(1)
	if err != nil {
		t.Fatalf("Tick error: %v", err)
	}
	found := false
	for _, m := range out {
		if len(m.Payload) > 1 && protocol.Opcode(m.Payload[1]) == protocol.OpPlayerLeaveOthers {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the deferred PLAYERLEAVE_OTHERS to surface from Tick")
	}
}

func TestMapSizeTransferBeginsDownloadAndStartsPushingChunks(t *testing.T) {
	g := newTestGame()
	res, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy())
	if err != nil || !res.Accepted {
		t.Fatalf("join failed: %v %+v", err, res)
	}
	msgs, err := g.HandleMapSize(res.UID, MapSizeTransfer, 0, 0)
	if err != nil {
		t.Fatalf("HandleMapSize error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected STARTDOWNLOAD message, got %d", len(msgs))
	}

	out, err := g.Tick(1)
	if err != nil {
		t.Fatalf("Tick error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected at least one MAPPART chunk after tick")
	}
}

func TestMapPartOKUpdatesDownloadPct(t *testing.T) {
	g := newTestGame()
	res, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy())
	if err != nil || !res.Accepted {
		t.Fatalf("join failed: %v %+v", err, res)
	}
	if _, err := g.HandleMapSize(res.UID, MapSizeTransfer, 0, 0); err != nil {
		t.Fatalf("HandleMapSize error: %v", err)
	}
	chunks := g.MapTransfer.Advance(1 << 20)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk in flight, got %d", len(chunks))
	}
	c := chunks[0]
	if err := g.HandleMapPartOK(res.UID, c.StartOffset+uint32(len(c.Data))); err != nil {
		t.Fatalf("HandleMapPartOK error: %v", err)
	}
	if g.Users[res.UID].DownloadPct == 0 {
		t.Fatalf("expected a nonzero download percentage recorded on the user")
	}
}

func TestMapMissingKickFiresAfterDelay(t *testing.T) {
	g := newTestGame()
	g.Config.LacksMapKickDelayMS = 1000
	res, err := g.Join(reqJoin(1, 0xC0FFEE, "Alice"), net.ParseIP("1.2.3.4"), [4]byte{1, 2, 3, 4}, 6112, true, conn.DefaultPolicy())
	if err != nil || !res.Accepted {
		t.Fatalf("join failed: %v %+v", err, res)
	}
	if _, err := g.HandleMapSize(res.UID, MapSizeTransfer, 0, 0); err != nil {
		t.Fatalf("HandleMapSize error: %v", err)
	}
	if _, err := g.Tick(2000); err != nil {
		t.Fatalf("Tick error: %v", err)
	}
	if _, ok := g.Users[res.UID]; ok {
		t.Fatalf("expected user kicked for missing map after deadline")
	}
}
