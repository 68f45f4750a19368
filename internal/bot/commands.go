package bot

import (
	"fmt"

	"github.com/wc3hostbot/core/internal/collab/bus"
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/game"
)

// Host satisfies bus.CommandBus: the in-process command surface wraps
// the actual game registry, and an out-of-process collaborator (CLI,
// chat bridge) drives it through that interface instead.
var _ bus.CommandBus = (*Host)(nil)

// Host owns the in-process command surface named in §6: an external
// collaborator (CLI, chat bridge, or any wrapper in front of the
// internal/collab/bus interface) drives every one of these instead of touching a *game.Game directly,
// so the scheduler's tick goroutine stays the only writer.
type Host struct {
	registry *game.Registry
	sink     OutboundSink
}

// NewHost builds a command surface bound to reg. sink receives the
// wire messages any command produces immediately (Kick, Chat, Say);
// ticked output still flows through the Scheduler.
func NewHost(reg *game.Registry, sink OutboundSink) *Host {
	return &Host{registry: reg, sink: sink}
}

func (h *Host) deliver(handle core.GameHandle, msgs []game.OutboundMessage) {
	if len(msgs) == 0 || h.sink == nil {
		return
	}
	h.sink.Deliver(handle, msgs)
}

// HostGame creates and registers a new Lobby-phase game (the `host`
// command).
func (h *Host) HostGame(hostCounter core.HostCounter, entryKey core.EntryKey, m game.Map, cfg game.Config, creator, owner string, now core.Tick) *game.Game {
	g := game.New(hostCounter, entryKey, m, cfg, creator, owner, now)
	h.registry.Add(g)
	return g
}

func (h *Host) resolve(handle core.GameHandle) (*game.Game, error) {
	g, err := h.registry.Resolve(handle)
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}
	return g, nil
}

// Unhost runs the `unhost` command.
func (h *Host) Unhost(handle core.GameHandle) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	g.Unhost()
	return nil
}

// Start runs the `start` command.
func (h *Host) Start(handle core.GameHandle, now core.Tick, force bool) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	msgs, err := g.Start(now, force)
	if err != nil {
		return err
	}
	h.deliver(handle, msgs)
	return nil
}

// Kick runs the `kick` command.
func (h *Host) Kick(handle core.GameHandle, uid core.UID, reason game.KickReason) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	msgs, err := g.Kick(uid, reason)
	if err != nil {
		return err
	}
	h.deliver(handle, msgs)
	return nil
}

// Swap runs the `swap` command.
func (h *Host) Swap(handle core.GameHandle, a, b core.UID) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	return g.Swap(a, b)
}

// Open runs the `open` command.
func (h *Host) Open(handle core.GameHandle, slotIndex int) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	return g.Open(slotIndex)
}

// Close runs the `close` command.
func (h *Host) Close(handle core.GameHandle, slotIndex int) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	return g.Close(slotIndex)
}

// Chat runs the `chat` command (host-originated announcement).
func (h *Host) Chat(handle core.GameHandle, text string) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	msg, err := g.Chat(text)
	if err != nil {
		return err
	}
	h.deliver(handle, []game.OutboundMessage{msg})
	return nil
}

// Say runs the `say` command (relay a user's chat to the rest).
func (h *Host) Say(handle core.GameHandle, from core.UID, text string) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	msg, err := g.Say(from, text)
	if err != nil {
		return err
	}
	h.deliver(handle, []game.OutboundMessage{msg})
	return nil
}

// Pause runs the `pause` command.
func (h *Host) Pause(handle core.GameHandle, uid core.UID, now core.Tick) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	return g.Pause(uid, now)
}

// Resume runs the `resume` command.
func (h *Host) Resume(handle core.GameHandle, uid core.UID, now core.Tick) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	return g.Resume(uid, now)
}

// Mute runs the `mute` command.
func (h *Host) Mute(handle core.GameHandle, uid core.UID, seconds int) error {
	g, err := h.resolve(handle)
	if err != nil {
		return err
	}
	return g.Mute(uid, seconds)
}
