package gproxy

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/wc3hostbot/core/internal/core"
)

// DeriveReconnectKey mints uid's GPS_INIT reconnect key from a per-game
// random salt. Using a keyed hash instead of a second independent random
// draw means the key is reproducible from (salt, uid) without the
// registry having to persist it separately, while still being
// unguessable to a client that only knows its own uid.
func DeriveReconnectKey(gameSalt [32]byte, uid core.UID) core.ReconnectKey {
	h, _ := blake2b.New256(gameSalt[:])
	var b [1]byte
	b[0] = byte(uid)
	h.Write(b[:])
	sum := h.Sum(nil)
	return core.ReconnectKey(binary.BigEndian.Uint32(sum[:4]))
}
