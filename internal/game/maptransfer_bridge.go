package game

import (
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

// MapSizeFlag mirrors the MAPSIZE wire flag (§4.5): 1 means the client
// already has the map and proceeds straight to MAPCHECK, 3 asks the host
// to begin (or resume) a chunked transfer from the reported size.
type MapSizeFlag uint8

const (
	MapSizeHave     MapSizeFlag = 1
	MapSizeTransfer MapSizeFlag = 3
)

// HandleMapSize processes a MAPSIZE report. When the client already has
// the map, there is nothing further to send here; MAPCHECK already went
// out during Join. When it asks for a transfer, BeginDownload arms the
// cursor and the next tick's mapTransferTick will start pushing
// chunks.
func (g *Game) HandleMapSize(uid core.UID, flag MapSizeFlag, reportedSize uint32, now core.Tick) ([]OutboundMessage, error) {
	if flag != MapSizeTransfer {
		return nil, nil
	}
	g.MapTransfer.BeginDownload(uid, reportedSize, now, g.Config.LacksMapKickDelayMS)
	wire, err := protocol.EncodeStartDownload(uid)
	if err != nil {
		return nil, err
	}
	return []OutboundMessage{unicast(uid, wire)}, nil
}

// HandleMapPartOK applies a MAPPART_OK ack and, when it crosses a new 1%
// boundary, folds the downloader's updated percentage into the slot
// table so the next coalesced SLOTINFO carries it (§4.5).
func (g *Game) HandleMapPartOK(uid core.UID, offset uint32) error {
	step, err := g.MapTransfer.Ack(uid, offset)
	if err != nil {
		return err
	}
	if step.Percent == 0 {
		return nil
	}
	u, ok := g.Users[uid]
	if !ok {
		return nil
	}
	u.DownloadPct = step.Percent
	return g.Slots.SetDownloadPct(uid, step.Percent)
}

// HandleMapPartErr applies a MAPPART_ERR resend request.
func (g *Game) HandleMapPartErr(uid core.UID, offset uint32) error {
	return g.MapTransfer.Err(uid, offset)
}

// mapTransferTick pushes the next round of MAPPART chunks and kicks any
// downloader whose lacks_map_kick_delay has elapsed. It is folded into
// tickLobby since map transfer only ever happens before the countdown.
func (g *Game) mapTransferTick(now core.Tick, out []OutboundMessage) ([]OutboundMessage, error) {
	for uid := range g.Users {
		if g.MapTransfer.PendingKickCheck(uid, now) {
			kicked, err := g.Kick(uid, KickMapMissing)
			if err != nil {
				return out, err
			}
			out = append(out, kicked...)
		}
	}

	chunks := g.MapTransfer.Advance(g.Config.MaxUploadBytesPerSecond)
	for _, c := range chunks {
		wire, err := protocol.EncodeMapPart(core.NoUID, c.UID, c.StartOffset, c.Data)
		if err != nil {
			return out, err
		}
		out = append(out, unicast(c.UID, wire))
	}
	return out, nil
}
