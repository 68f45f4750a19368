package game

import (
	"crypto/rand"
	"fmt"

	"github.com/wc3hostbot/core/internal/action"
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/discovery"
	"github.com/wc3hostbot/core/internal/gproxy"
	"github.com/wc3hostbot/core/internal/lag"
	"github.com/wc3hostbot/core/internal/maptransfer"
	"github.com/wc3hostbot/core/internal/protocol"
	"github.com/wc3hostbot/core/internal/slot"
)

// Map is the hosted map's descriptor (§3 Game).
type Map struct {
	Path           string
	Data           []byte
	CRC32          uint32
	ScriptsSHA1    [20]byte
	BlizzHash      uint32
	Width, Height  uint16
	Flags          uint32
	Layout         slot.Layout
	MinGameVersion uint32
}

// Config bundles every operator-tunable timeout and policy knob the
// lifecycle consults (§4.9, §4.4, §4.5).
type Config struct {
	LobbyTimeoutMS      int64
	LobbyOwnerTimeoutMS int64
	CountdownTickMS     int64
	CountdownTicks      int
	LoadingMode         LoadingMode
	LoadingTimeoutMS    int64
	PlayingTimeoutMS    int64
	LacksMapKickDelayMS int64

	LatencyMS     uint16
	SyncLimit     uint64
	SyncLimitSafe uint64
	DefaultPauses int

	MaxUploadBytesPerSecond int
}

// DefaultConfig matches the reference defaults named throughout §4.
func DefaultConfig() Config {
	return Config{
		LobbyTimeoutMS:          600_000,
		LobbyOwnerTimeoutMS:     120_000,
		CountdownTickMS:         500,
		CountdownTicks:          5,
		LoadingMode:             LoadingStandard,
		LoadingTimeoutMS:        900_000,
		PlayingTimeoutMS:        18_000_000,
		LacksMapKickDelayMS:     60_000,
		LatencyMS:               100,
		SyncLimit:               32,
		SyncLimitSafe:           8,
		DefaultPauses:           3,
		MaxUploadBytesPerSecond: 1 << 20,
	}
}

// OutboundMessage is one wire payload the Tick/command caller must
// deliver. ToUID zero means broadcast to every Joined connection.
type OutboundMessage struct {
	ToUID   core.UID
	Payload []byte
}

func broadcast(payload []byte) OutboundMessage {
	return OutboundMessage{Payload: payload}
}

func unicast(uid core.UID, payload []byte) OutboundMessage {
	return OutboundMessage{ToUID: uid, Payload: payload}
}

// Game is the per-match aggregate (§3). Not safe for concurrent use;
// the bot scheduler guarantees only its own tick goroutine ever touches
// a Game.
type Game struct {
	Handle      core.GameHandle
	HostCounter core.HostCounter
	EntryKey    core.EntryKey
	Map         Map
	Config      Config

	CreatorName string
	OwnerName   string

	Phase Phase

	Slots       *slot.Table
	Actions     *action.Engine
	Lag         *lag.Manager
	MapTransfer *maptransfer.Transfer
	GProxy      *gproxy.Registry
	Discovery   *discovery.Publisher
	History     *History

	Users      map[core.UID]*User
	Spectators []*Spectator

	pendingLeaveReasons map[core.UID]uint32
	gproxySalt          [32]byte

	createdAt          core.Tick
	lobbyEnteredAt     core.Tick
	lastOwnerSeenAt    core.Tick
	countdownTicksLeft int
	loadingEnteredAt   core.Tick
	playingEnteredAt   core.Tick
	lastPingAt         core.Tick

	// paused is set by a wire-triggered PAUSE_GAME action callback and
	// cleared by the matching RESUME_GAME callback (§4.4 rule 4): while
	// true, tickPlaying stops advancing the action engine so game time
	// does not pass for anyone.
	paused bool

	deleteMe bool
}

// pingIntervalMS is how often PING_FROM_HOST goes out once a game has
// users, feeding User.RecordRTT off the matching PONG_TO_HOST (§4.3).
const pingIntervalMS = 5000

// disconnectReason is the synthetic PLAYERLEAVE_OTHERS reason code used
// for a user whose socket died without ever sending LEAVEGAME (§7
// TransportError: treated as an ungraceful leave). 0x01 is the
// PLAYERLEAVE_DISCONNECT convention shared by every GHost++-lineage
// implementation the wire format descends from.
const disconnectReason uint32 = 0x01

// New builds a freshly opened Lobby-phase game.
func New(hostCounter core.HostCounter, entryKey core.EntryKey, m Map, cfg Config, creator, owner string, now core.Tick) *Game {
	g := &Game{
		Handle:      core.NewGameHandle(),
		HostCounter: hostCounter,
		EntryKey:    entryKey,
		Map:         m,
		Config:      cfg,
		CreatorName: creator,
		OwnerName:   owner,
		Phase:       PhaseLobby,
		Slots:       slot.NewTable(m.Layout),
		Actions:     action.NewEngine(cfg.LatencyMS, cfg.DefaultPauses),
		Lag:         lag.NewManager(cfg.SyncLimit, cfg.SyncLimitSafe),
		MapTransfer: maptransfer.New(m.Data, cfg.MaxUploadBytesPerSecond),
		GProxy:      gproxy.NewRegistry(),
		Discovery:   discovery.New(nil),
		History:     NewHistory(cfg.LatencyMS, 0),
		Users:               make(map[core.UID]*User),
		pendingLeaveReasons: make(map[core.UID]uint32),
		createdAt:           now,
		lobbyEnteredAt:      now,
		lastOwnerSeenAt:     now,
		lastPingAt:          now,
	}
	_, _ = rand.Read(g.gproxySalt[:])
	return g
}

// DeleteMe reports whether the scheduler should destroy this game at
// the top of the next tick (§5 Cancellation).
func (g *Game) DeleteMe() bool {
	return g.deleteMe
}

// snapshot builds the GameSnapshot the discovery publisher needs.
func (g *Game) snapshot(upTimeSec uint32) discovery.GameSnapshot {
	return discovery.GameSnapshot{
		GameVersion: g.Map.MinGameVersion,
		HostCounter: g.HostCounter,
		EntryKey:    g.EntryKey,
		GameName:    g.CreatorName,
		Stat: protocol.GameStatInfo{
			MapFlags:  g.Map.Flags,
			MapWidth:  g.Map.Width,
			MapHeight: g.Map.Height,
			BlizzHash: g.Map.BlizzHash,
			MapPath:   g.Map.Path,
			HostName:  g.CreatorName,
		},
		SlotsTotal: uint32(len(g.Slots.Slots())),
		Players:    uint32(len(g.Users)),
		UpTimeSec:  upTimeSec,
	}
}

// Tick advances the lifecycle by one scheduler pass and returns any
// messages that must be delivered. Every operation here must be
// non-blocking (§5).
func (g *Game) Tick(now core.Tick) ([]OutboundMessage, error) {
	var out []OutboundMessage

	if g.Slots.Dirty() {
		wire, err := g.encodeSlotInfo()
		if err != nil {
			return out, err
		}
		out = append(out, broadcast(wire))
		g.Slots.ClearDirty()
	}

	if g.Phase != PhaseEnded {
		var err error
		out, err = g.pingTick(now, out)
		if err != nil {
			return out, err
		}
	}

	switch g.Phase {
	case PhaseLobby:
		return g.tickLobby(now, out)
	case PhaseCountingDown:
		return g.tickCountingDown(now, out)
	case PhaseLoading:
		return g.tickLoading(now, out)
	case PhasePlaying:
		return g.tickPlaying(now, out)
	case PhaseEnded:
		g.deleteMe = true
		return out, nil
	}
	return out, nil
}

// pingTick broadcasts PING_FROM_HOST on the configured cadence (§4.3):
// the tag is just the current tick, so the matching PONG_TO_HOST's
// RecordRTT sample is simply now-minus-tag with no extra bookkeeping.
func (g *Game) pingTick(now core.Tick, out []OutboundMessage) ([]OutboundMessage, error) {
	if len(g.Users) == 0 {
		return out, nil
	}
	if now.Since(g.lastPingAt) < pingIntervalMS {
		return out, nil
	}
	g.lastPingAt = now
	wire, err := protocol.EncodePingFromHost(uint32(now))
	if err != nil {
		return out, err
	}
	return append(out, broadcast(wire)), nil
}

func (g *Game) encodeSlotInfo() ([]byte, error) {
	return protocol.EncodeSlotInfo(toSlotWire(g.Slots.Slots()), 0, g.Map.Layout.ByteValue())
}

func toSlotWire(slots []slot.Slot) []protocol.SlotWire {
	out := make([]protocol.SlotWire, len(slots))
	for i, s := range slots {
		out[i] = protocol.SlotWire{
			PID:            uint8(s.UID),
			DownloadStatus: s.DownloadPct,
			SlotStatus:     uint8(s.Status),
			Computer:       boolToByte(s.Computer),
			Team:           s.Team,
			Color:          s.Color,
			Race:           uint8(s.Race),
			ComputerType:   uint8(s.Difficulty),
			Handicap:       s.Handicap,
		}
	}
	return out
}

func boolToByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (g *Game) tickLobby(now core.Tick, out []OutboundMessage) ([]OutboundMessage, error) {
	var deadline int64
	if g.OwnerName == "" {
		deadline = g.Config.LobbyTimeoutMS
	} else {
		deadline = g.Config.LobbyOwnerTimeoutMS
	}
	if now.Since(g.lobbyEnteredAt) >= deadline {
		g.Phase = PhaseEnded
		return out, nil
	}
	return g.mapTransferTick(now, out)
}

func (g *Game) tickCountingDown(now core.Tick, out []OutboundMessage) ([]OutboundMessage, error) {
	if g.countdownTicksLeft > 0 {
		g.countdownTicksLeft--
		return out, nil
	}
	wire, err := protocol.EncodeCountdownEnd()
	if err != nil {
		return out, err
	}
	out = append(out, broadcast(wire))

	for _, s := range g.Slots.Slots() {
		if s.Type != slot.TypeVirtual {
			continue
		}
		info, err := protocol.EncodePlayerInfo(uint32(s.UID), s.UID, fmt.Sprintf("Player%d", s.UID), [4]byte{}, [4]byte{})
		if err != nil {
			return out, err
		}
		out = append(out, broadcast(info))

		loaded, err := protocol.EncodeGameLoadedOthers(s.UID)
		if err != nil {
			return out, err
		}
		g.History.AppendLoadingVirtual(loaded)
		out = append(out, broadcast(loaded))
	}

	g.Phase = PhaseLoading
	g.loadingEnteredAt = now
	return out, nil
}

func (g *Game) tickLoading(now core.Tick, out []OutboundMessage) ([]OutboundMessage, error) {
	if now.Since(g.loadingEnteredAt) >= g.Config.LoadingTimeoutMS {
		for uid, u := range g.Users {
			if !u.FinishedLoading {
				u.Leaving = true
				delete(g.Users, uid)
			}
		}
	}
	allLoaded, anyLoaded := true, false
	for _, u := range g.Users {
		if u.FinishedLoading {
			anyLoaded = true
		} else {
			allLoaded = false
		}
	}
	if allLoaded && g.Config.LoadingMode == LoadingStandard {
		for _, wire := range g.History.LoadingRealBuffer {
			out = append(out, broadcast(wire))
		}
	}
	if allLoaded || (g.Config.LoadingMode == LoadingInGame && anyLoaded) {
		g.Phase = PhasePlaying
		g.playingEnteredAt = now
	}
	return out, nil
}

func (g *Game) tickPlaying(now core.Tick, out []OutboundMessage) ([]OutboundMessage, error) {
	if len(g.Users) == 0 {
		g.Phase = PhaseEnded
		return out, nil
	}
	if now.Since(g.playingEnteredAt) >= g.Config.PlayingTimeoutMS {
		g.Phase = PhaseEnded
		return out, nil
	}

	for uid := range g.Users {
		transition := g.Lag.Evaluate(uid, g.Actions.BroadcastCounter(), now)
		if !transition.Changed {
			continue
		}
		var wire []byte
		var err error
		if transition.State == lag.Lagging {
			wire, err = protocol.EncodeStartLag([]core.UID{uid})
		} else {
			wire, err = protocol.EncodeStopLag(uid, uint32(transition.LaggingTicks))
		}
		if err != nil {
			return out, err
		}
		out = append(out, broadcast(wire))
	}

	if g.paused && g.Actions.PeekCallback().Kind != action.CallbackResume {
		// Game time is frozen until a RESUME_GAME is already queued in
		// the head frame; skip the tick entirely rather than advance
		// the action engine's clock (§4.4 rule 4).
		return out, nil
	}

	result, err := g.Actions.Tick()
	if err != nil {
		return out, err
	}
	for _, wire := range result.WirePackets {
		g.History.AppendFrame(wire)
		out = append(out, broadcast(wire))
	}
	cbMsg, err := g.applyFrameCallback(result.Callback)
	if err != nil {
		return out, err
	}
	if cbMsg != nil {
		out = append(out, *cbMsg)
	}
	return out, nil
}

// applyFrameCallback turns a Frame's attached Callback (§4.4) into the
// wire message it represents, once that frame has actually been
// broadcast. Pause/resume toggle g.paused so tickPlaying stops/resumes
// advancing game time; only CallbackLeaver carries a wire message.
func (g *Game) applyFrameCallback(cb action.Callback) (*OutboundMessage, error) {
	switch cb.Kind {
	case action.CallbackPause:
		g.paused = true
		return nil, nil
	case action.CallbackResume:
		g.paused = false
		return nil, nil
	case action.CallbackLeaver:
		reason := g.pendingLeaveReasons[cb.UID]
		delete(g.pendingLeaveReasons, cb.UID)
		wire, err := protocol.EncodePlayerLeaveOthers(cb.UID, reason)
		if err != nil {
			return nil, err
		}
		msg := broadcast(wire)
		return &msg, nil
	default:
		return nil, nil
	}
}

// userOrErr returns uid's User, or a ProtocolError when uid is not
// present.
func (g *Game) userOrErr(uid core.UID) (*User, error) {
	u, ok := g.Users[uid]
	if !ok {
		return nil, core.NewError(core.ProtocolError, "game.user", fmt.Errorf("uid %d not present", uid))
	}
	return u, nil
}

// disconnectUser removes uid's slot for reasonCode, deferring
// PLAYERLEAVE_OTHERS the same way Kick does when uid still has pending
// frames in the action engine.
func (g *Game) disconnectUser(uid core.UID, reasonCode uint32) ([]OutboundMessage, error) {
	found := g.Actions.AttachLeaverCallback(uid)

	delete(g.Users, uid)
	g.Slots.Leave(uid)
	g.Lag.Forget(uid)
	g.Actions.Forget(uid)
	g.GProxy.Free(uid)
	g.MapTransfer.Forget(uid)

	if found {
		g.pendingLeaveReasons[uid] = reasonCode
		return nil, nil
	}
	wire, err := protocol.EncodePlayerLeaveOthers(uid, reasonCode)
	if err != nil {
		return nil, err
	}
	return []OutboundMessage{broadcast(wire)}, nil
}

// HandleDisconnect reacts to a dead socket (§7 TransportError): a
// GProxy-enrolled user is paused pending reconnect rather than removed;
// anyone else is treated as an ungraceful leave.
func (g *Game) HandleDisconnect(uid core.UID) ([]OutboundMessage, error) {
	u, ok := g.Users[uid]
	if !ok {
		return nil, nil
	}
	if u.GProxy != nil {
		if err := g.HandleGPSDisconnect(uid); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return g.disconnectUser(uid, disconnectReason)
}

// MatchesGProxyReconnect reports whether uid's live GProxy session in
// this game was issued the given reconnect key, letting the Acceptor
// find which hosted game a bare GPS_RECONNECT belongs to.
func (g *Game) MatchesGProxyReconnect(uid core.UID, key core.ReconnectKey) bool {
	s, ok := g.GProxy.Session(uid)
	return ok && s.ReconnectKey == key
}
