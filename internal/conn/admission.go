package conn

import (
	"net"
	"strings"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

// UnsafeNameHandler selects how a REQJOIN name containing banned
// characters (or the empty string) is handled.
type UnsafeNameHandler uint8

const (
	// NameCensor replaces offending characters in place and admits the
	// connection under the sanitized name.
	NameCensor UnsafeNameHandler = iota
	// NameDeny rejects the join outright (REJECTJOIN(NAME_TAKEN) is
	// reused for this, matching how live servers report it to avoid
	// telling a prober exactly why they were blocked).
	NameDeny
	// NameAllow admits the name unmodified.
	NameAllow
)

// Policy bundles the operator-tunable admission knobs (§4/§7): these are
// the same handler/limit pattern as unsafe_name_handler, desync_handler,
// leaver_handler elsewhere in the system.
type Policy struct {
	MaxSameIP    int
	MaxLoopback  int
	NameHandler  UnsafeNameHandler
	WaiveEntryKey bool // Battle.net realm join: entry_key check is skipped
}

// DefaultPolicy matches the reference server's defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxSameIP:   3,
		MaxLoopback: 8,
		NameHandler: NameCensor,
	}
}

// LobbyView is the read-only slice of game state the admission policy
// consults; the Game aggregate implements it.
type LobbyView interface {
	// HasName reports whether name already belongs to a live user.
	HasName(name string) bool
	// CountFromIP returns how many already-admitted connections
	// originate from ip.
	CountFromIP(ip net.IP) int
	// IsFull reports whether the slot table has no Open slot left.
	IsFull() bool
	// IsOpen reports whether the lobby still accepts joins (false once
	// countdown has started or later).
	IsOpen() bool
	// IsBanned reports whether name or ip is on the ban list.
	IsBanned(name string, ip net.IP) bool
}

// Decision is the outcome of evaluating a REQJOIN.
type Decision struct {
	Allow         bool
	Reason        protocol.AdmissionRejectReason
	SanitizedName string
}

var bannedNameChars = "|\x00"

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(bannedNameChars, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	sanitized := b.String()
	if sanitized == "" {
		sanitized = "Player"
	}
	return sanitized
}

func nameIsUnsafe(name string) bool {
	if name == "" {
		return true
	}
	return strings.ContainsAny(name, bannedNameChars)
}

// Admit runs the REQJOIN policy in spec order: host_counter, entry_key,
// name, IP-flood, plus the taxonomy's BANNED/FULL/LOBBY_CLOSED/
// VERSION_MISMATCH checks folded into the same pass.
func Admit(req protocol.ReqJoin, remoteIP net.IP, expectedHostCounter core.HostCounter, expectedEntryKey core.EntryKey, clientVersionOK bool, lobby LobbyView, policy Policy) Decision {
	if req.HostCounter != expectedHostCounter {
		return Decision{Reason: protocol.RejectWrongHostCounter}
	}
	if !policy.WaiveEntryKey && req.EntryKey != expectedEntryKey {
		return Decision{Reason: protocol.RejectWrongEntryKey}
	}
	if !clientVersionOK {
		return Decision{Reason: protocol.RejectWrongGameVersion}
	}
	if !lobby.IsOpen() {
		return Decision{Reason: protocol.RejectLobbyClosed}
	}
	if lobby.IsBanned(req.Name, remoteIP) {
		return Decision{Reason: protocol.RejectBanned}
	}

	name := req.Name
	if nameIsUnsafe(name) {
		switch policy.NameHandler {
		case NameDeny:
			return Decision{Reason: protocol.RejectNameTaken}
		case NameAllow:
			// fall through unmodified
		default: // NameCensor
			name = sanitizeName(name)
		}
	}
	if lobby.HasName(name) {
		return Decision{Reason: protocol.RejectNameTaken}
	}

	limit := policy.MaxSameIP
	if remoteIP != nil && remoteIP.IsLoopback() {
		limit = policy.MaxLoopback
	}
	if lobby.CountFromIP(remoteIP) >= limit {
		return Decision{Reason: protocol.RejectIPFlood}
	}

	if lobby.IsFull() {
		return Decision{Reason: protocol.RejectGameFull}
	}

	return Decision{Allow: true, SanitizedName: name}
}
