package game

import (
	"fmt"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
	"github.com/wc3hostbot/core/internal/slot"
)

// HandleInbound decodes and routes one drained frame from uid's
// connection into the matching game handler. This is the dispatch the
// bot scheduler calls once per tick per buffered frame (§5): everything
// downstream of Join (actions, keep-alives, chat, map transfer, pings,
// GProxy) only ever runs because this function fed it.
func (g *Game) HandleInbound(uid core.UID, frame protocol.Frame, now core.Tick) ([]OutboundMessage, error) {
	switch frame.Opcode {
	case protocol.OpOutgoingAction:
		return g.handleOutgoingAction(uid, frame.Payload, now)
	case protocol.OpOutgoingKeepAlive:
		return g.handleOutgoingKeepAlive(uid, frame.Payload)
	case protocol.OpChatToHost:
		return g.handleChatToHost(frame.Payload)
	case protocol.OpMapSize:
		return g.handleMapSizeFrame(uid, frame.Payload, now)
	case protocol.OpMapPartOK:
		return nil, g.handleMapPartOK(uid, frame.Payload)
	case protocol.OpMapPartErr:
		return nil, g.handleMapPartErr(uid, frame.Payload)
	case protocol.OpPongToHost:
		return nil, g.handlePongToHost(uid, frame.Payload, now)
	case protocol.OpGameLoadedSelf:
		return g.handleGameLoadedSelf(uid, frame.Payload)
	case protocol.OpLeaveGame:
		return g.handleLeaveGame(uid, frame.Payload)
	case protocol.OpGProxy:
		return g.handleGProxyFrame(uid, frame.Payload)
	default:
		return nil, nil
	}
}

func (g *Game) handleOutgoingAction(uid core.UID, payload []byte, now core.Tick) ([]OutboundMessage, error) {
	act, err := protocol.DecodeOutgoingAction(payload)
	if err != nil {
		return nil, core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	result := g.Actions.QueueAction(uid, act.Data, toStdTime(now))
	if result.Kick {
		return g.Kick(uid, KickAbuser)
	}
	return nil, nil
}

func (g *Game) handleOutgoingKeepAlive(uid core.UID, payload []byte) ([]OutboundMessage, error) {
	ka, err := protocol.DecodeOutgoingKeepAlive(payload)
	if err != nil {
		return nil, core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	g.Lag.ReceiveKeepAlive(uid, ka.Checksum)
	desync := g.Lag.CheckDesync()
	if !desync.Desynced {
		return nil, nil
	}
	g.History.MarkDesynced()
	var out []OutboundMessage
	for _, minorityUID := range desync.Minority {
		msgs, err := g.Kick(minorityUID, KickSpoofer)
		if err != nil {
			return out, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

func (g *Game) handleChatToHost(payload []byte) ([]OutboundMessage, error) {
	chat, err := protocol.DecodeChatToHost(payload)
	if err != nil {
		return nil, core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	switch chat.Type {
	case protocol.ChatTypeMessage:
		msg, err := g.Say(chat.FromUID, chat.Message)
		if err != nil {
			return nil, err
		}
		return []OutboundMessage{msg}, nil
	case protocol.ChatTypeTeamChange:
		return nil, g.Slots.ChangeTeam(chat.FromUID, chat.Value)
	case protocol.ChatTypeColorChange:
		return nil, g.Slots.ChangeColor(chat.FromUID, chat.Value)
	case protocol.ChatTypeRaceChange:
		return nil, g.Slots.ChangeRace(chat.FromUID, slot.Race(chat.Value))
	case protocol.ChatTypeHandicapChange:
		return nil, g.Slots.ChangeHandicap(chat.FromUID, chat.Value)
	default:
		return nil, nil
	}
}

func (g *Game) handleMapSizeFrame(uid core.UID, payload []byte, now core.Tick) ([]OutboundMessage, error) {
	ms, err := protocol.DecodeMapSize(payload)
	if err != nil {
		return nil, core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	return g.HandleMapSize(uid, MapSizeFlag(ms.Flag), ms.Size, now)
}

func (g *Game) handleMapPartOK(uid core.UID, payload []byte) error {
	ok, err := protocol.DecodeMapPartOK(payload)
	if err != nil {
		return core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	return g.HandleMapPartOK(uid, ok.Offset)
}

func (g *Game) handleMapPartErr(uid core.UID, payload []byte) error {
	if _, err := protocol.DecodeMapPartErr(payload); err != nil {
		return core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	offset, ok := g.MapTransfer.PendingOffset(uid)
	if !ok {
		return nil
	}
	return g.HandleMapPartErr(uid, offset)
}

// handlePongToHost feeds User.RecordRTT: the ping tag is just the tick
// value the host sent in PING_FROM_HOST (§4.3), so the round trip is
// simply now minus that tag.
func (g *Game) handlePongToHost(uid core.UID, payload []byte, now core.Tick) error {
	pong, err := protocol.DecodePongToHost(payload)
	if err != nil {
		return core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	u, ok := g.Users[uid]
	if !ok {
		return nil
	}
	u.RecordRTT(int32(now.Since(core.Tick(pong.Tag))))
	return nil
}

// handleGameLoadedSelf marks uid as loaded and records its
// GAMELOADED_OTHERS. Under LoadingStandard, while still in Loading, the
// message is held until tickLoading sees every user loaded and
// broadcasts them all together per §4.9 scenario 1; otherwise it is
// broadcast at once. A virtual slot's GAMELOADED_OTHERS was already
// emitted synthetically at CountdownEnd (tickCountingDown), so only real
// users reach here.
func (g *Game) handleGameLoadedSelf(uid core.UID, payload []byte) ([]OutboundMessage, error) {
	if _, err := protocol.DecodeGameLoadedSelf(payload); err != nil {
		return nil, core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	u, ok := g.Users[uid]
	if !ok {
		return nil, nil
	}
	if u.FinishedLoading {
		return nil, nil
	}
	u.FinishedLoading = true

	wire, err := protocol.EncodeGameLoadedOthers(uid)
	if err != nil {
		return nil, err
	}
	g.History.AppendLoadingReal(wire)
	if g.Config.LoadingMode == LoadingStandard && g.Phase == PhaseLoading {
		return nil, nil
	}
	return []OutboundMessage{broadcast(wire)}, nil
}

func (g *Game) handleLeaveGame(uid core.UID, payload []byte) ([]OutboundMessage, error) {
	lg, err := protocol.DecodeLeaveGame(payload)
	if err != nil {
		return nil, core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	if _, ok := g.Users[uid]; !ok {
		return nil, nil
	}
	return g.disconnectUser(uid, lg.Reason)
}

func (g *Game) handleGProxyFrame(uid core.UID, payload []byte) ([]OutboundMessage, error) {
	op, body, err := protocol.DecodeGPSFrame(payload)
	if err != nil {
		return nil, core.NewError(core.ProtocolError, "game.HandleInbound", err)
	}
	switch op {
	case protocol.GPSInit:
		init, err := protocol.DecodeGPSInit(body)
		if err != nil {
			return nil, core.NewError(core.ProtocolError, "game.HandleInbound", err)
		}
		reply, err := g.HandleGPSInit(uid, init.SupportsExtended)
		if err != nil {
			return nil, err
		}
		return []OutboundMessage{unicast(uid, reply)}, nil
	default:
		return nil, fmt.Errorf("game.HandleInbound: unexpected GProxy sub-opcode %d on a joined connection", op)
	}
}
