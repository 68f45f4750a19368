package game

import (
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/gproxy"
	"github.com/wc3hostbot/core/internal/protocol"
)

// HandleGPSInit negotiates a GProxy session for an already-admitted user
// (§4.6), recording Legacy or Extended from the client's GPS_INIT. No
// reconnect time window is enforced for either variant.
func (g *Game) HandleGPSInit(uid core.UID, supportsExtended bool) ([]byte, error) {
	u, err := g.userOrErr(uid)
	if err != nil {
		return nil, err
	}
	variant := gproxy.Legacy
	if supportsExtended {
		variant = gproxy.Extended
	}
	key := gproxy.DeriveReconnectKey(g.gproxySalt, uid)
	session := gproxy.NewSession(uid, variant, key, 0)
	g.GProxy.Begin(session)
	u.GProxy = session

	return protocol.EncodeGPSInitReply(key, 0)
}

// HandleGPSDisconnect marks a user's TCP stream as paused, pending a
// GPS_RECONNECT, and snapshots the current broadcast counter so the
// reconnect path can forgive exactly the ticks missed.
func (g *Game) HandleGPSDisconnect(uid core.UID) error {
	u, err := g.userOrErr(uid)
	if err != nil {
		return err
	}
	u.Disconnected = true
	u.disconnectedAtBroadcast = g.Actions.BroadcastCounter()
	return nil
}

// HandleGPSReconnect validates a GPS_RECONNECT against the registry and
// replays whatever the client missed while disconnected.
func (g *Game) HandleGPSReconnect(req protocol.GPSReconnectMsg) ([][]byte, error) {
	replay, reason, err := g.GProxy.Reconnect(req.UID, req.ReconnectKey, uint64(req.LastReceivedPacket))
	if err != nil {
		var gpsReason protocol.GPSRejectReason
		switch reason {
		case gproxy.RejectWrongKey:
			gpsReason = protocol.GPSRejectKeyMismatch
		default:
			gpsReason = protocol.GPSRejectUIDMismatch
		}
		wire, encErr := protocol.EncodeGPSReject(gpsReason)
		if encErr != nil {
			return nil, encErr
		}
		return [][]byte{wire}, nil
	}
	if u, ok := g.Users[req.UID]; ok && u.Disconnected {
		missed := int64(g.Actions.BroadcastCounter() - u.disconnectedAtBroadcast)
		g.Lag.ForgiveGap(req.UID, missed)
		u.Disconnected = false
	}
	return replay, nil
}
