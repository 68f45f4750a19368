package core

// UID is the 1-byte player identity within a game (1..15 players,
// 16..27 referees on modern versions). Never 0 or 255 for an occupied
// slot; those values are reserved as "no player" sentinels on the wire.
type UID uint8

// NoUID is the wire sentinel meaning "no player assigned".
const NoUID UID = 0

// HostCounter is the 32-bit game identifier unique within a bot instance.
type HostCounter uint32

// EntryKey is the 32-bit random LAN anti-spoof value a joiner must echo
// back in REQJOIN, unless Battle.net join mode waives the check.
type EntryKey uint32

// ReconnectKey is the 32-bit secret issued during a GProxy handshake and
// required to resume a paused action stream after a TCP reconnect.
type ReconnectKey uint32
