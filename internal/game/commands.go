package game

import (
	"fmt"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

// Start runs the owner's `start` command (§6 CLI surface). force bypasses
// the "everyone map-ready" gate the real lobby would otherwise enforce.
func (g *Game) Start(now core.Tick, force bool) ([]OutboundMessage, error) {
	if g.Phase != PhaseLobby {
		return nil, core.NewError(core.AdmissionError, "game.Start", fmt.Errorf("game is not in Lobby (phase=%s)", g.Phase))
	}
	if !force {
		for _, u := range g.Users {
			if !u.MapReady {
				return nil, core.NewError(core.AdmissionError, "game.Start", fmt.Errorf("user %s has not confirmed the map", u.Name))
			}
		}
	}
	g.Slots.Balance()
	wire, err := protocol.EncodeCountdownStart()
	if err != nil {
		return nil, err
	}
	g.Phase = PhaseCountingDown
	g.countdownTicksLeft = g.Config.CountdownTicks
	return []OutboundMessage{broadcast(wire)}, nil
}

// Unhost sets the DeleteMe flag the scheduler honours at the next tick
// boundary (§5 Cancellation), per the owner's `unhost` command.
func (g *Game) Unhost() {
	g.deleteMe = true
}

// Kick removes uid for the given reason, freeing their slot.
func (g *Game) Kick(uid core.UID, reason KickReason) ([]OutboundMessage, error) {
	u, err := g.userOrErr(uid)
	if err != nil {
		return nil, err
	}
	u.KickReasons |= reason
	// The PLAYERLEAVE_OTHERS is deferred when uid still has pending
	// frames: disconnectUser/applyFrameCallback fires it once the frame
	// carrying the callback is broadcast.
	return g.disconnectUser(uid, uint32(reason))
}

// Swap exchanges two slots by the uids occupying them (§6 CLI surface).
func (g *Game) Swap(a, b core.UID) error {
	if g.Phase != PhaseLobby {
		return core.NewError(core.AdmissionError, "game.Swap", fmt.Errorf("slots are frozen outside Lobby"))
	}
	return g.Slots.Swap(a, b)
}

// Open reopens a slot for joining.
func (g *Game) Open(slotIndex int) error {
	if g.Phase != PhaseLobby {
		return core.NewError(core.AdmissionError, "game.Open", fmt.Errorf("slots are frozen outside Lobby"))
	}
	return g.Slots.Open(slotIndex)
}

// Close closes a slot to further joins.
func (g *Game) Close(slotIndex int) error {
	if g.Phase != PhaseLobby {
		return core.NewError(core.AdmissionError, "game.Close", fmt.Errorf("slots are frozen outside Lobby"))
	}
	return g.Slots.Close(slotIndex)
}

// Chat broadcasts a host-originated announcement to every user.
func (g *Game) Chat(text string) (OutboundMessage, error) {
	uids := make([]core.UID, 0, len(g.Users))
	for uid := range g.Users {
		uids = append(uids, uid)
	}
	wire, err := protocol.EncodeChatFromHost(uids, core.NoUID, 0, text)
	if err != nil {
		return OutboundMessage{}, err
	}
	return broadcast(wire), nil
}

// Say relays one user's chat message to the rest of the lobby/game.
func (g *Game) Say(from core.UID, text string) (OutboundMessage, error) {
	if _, err := g.userOrErr(from); err != nil {
		return OutboundMessage{}, err
	}
	uids := make([]core.UID, 0, len(g.Users))
	for uid := range g.Users {
		if uid != from {
			uids = append(uids, uid)
		}
	}
	wire, err := protocol.EncodeChatFromHost(uids, from, 0, text)
	if err != nil {
		return OutboundMessage{}, err
	}
	return broadcast(wire), nil
}

// Pause injects a synthetic PAUSE_GAME action on the owner's behalf.
func (g *Game) Pause(uid core.UID, now core.Tick) error {
	result := g.Actions.QueueAction(uid, []byte{0x01}, toStdTime(now))
	if result.Kick {
		return core.NewError(core.CapacityError, "game.Pause", fmt.Errorf("uid %d exceeded APM quota", uid))
	}
	return nil
}

// Resume injects a synthetic RESUME_GAME action.
func (g *Game) Resume(uid core.UID, now core.Tick) error {
	result := g.Actions.QueueAction(uid, []byte{0x02}, toStdTime(now))
	if result.Kick {
		return core.NewError(core.CapacityError, "game.Resume", fmt.Errorf("uid %d exceeded APM quota", uid))
	}
	return nil
}

// Mute only checks that uid is a live user: the core records no mute
// state and suppresses no chat; it just exposes the command per §6.
func (g *Game) Mute(uid core.UID, seconds int) error {
	if _, err := g.userOrErr(uid); err != nil {
		return err
	}
	return nil
}
