// Package realm is the Battle.net-realm collaborator: a trusted realm
// broker vouches for a joining account by handing it a short-lived
// bearer token instead of the shared entry_key the LAN admission path
// uses. Verifier.Verify only checks a token and returns the BattleTag it
// vouches for; setting conn.Policy.WaiveEntryKey for the matching
// REQJOIN is left to the caller, and no code in this repository does so.
package realm

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wc3hostbot/core/internal/core"
)

// WaiverClaims identifies the account and game a realm has vouched for.
type WaiverClaims struct {
	jwt.RegisteredClaims
	RealmName string `json:"realm,omitempty"`
	BattleTag string `json:"battle_tag,omitempty"`
}

// GenerateKey creates a new P-256 signing key for a realm broker.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("realm: generate key: %w", err)
	}
	return key, nil
}

// ParseKeyFromEnv parses a P-256 private key from PEM or base64-DER, the
// way an operator would supply it via environment configuration.
func ParseKeyFromEnv(envValue string) (*ecdsa.PrivateKey, error) {
	if envValue == "" {
		return nil, fmt.Errorf("realm: signing key is required")
	}
	if block, _ := pem.Decode([]byte(envValue)); block != nil {
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("realm: parse pem key: %w", err)
		}
		return key, nil
	}
	der, err := base64.StdEncoding.DecodeString(envValue)
	if err != nil {
		return nil, fmt.Errorf("realm: decode base64 key: %w", err)
	}
	key, err := x509.ParseECPrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("realm: parse der key: %w", err)
	}
	return key, nil
}

// Issuer mints entry-key waiver tokens on behalf of a realm broker.
type Issuer struct {
	key       *ecdsa.PrivateKey
	realmName string
	ttl       time.Duration
}

// NewIssuer builds an Issuer signing as realmName with key, minting
// tokens valid for ttl (REQJOIN happens within seconds of the broker
// handing a client its token, so this should stay short — minutes, not
// hours).
func NewIssuer(key *ecdsa.PrivateKey, realmName string, ttl time.Duration) *Issuer {
	return &Issuer{key: key, realmName: realmName, ttl: ttl}
}

// IssueWaiver mints a token vouching that battleTag is joining gameHandle
// under gameHandle's host's authority, entitling the bearer to an
// entry-key waiver at REQJOIN time.
func (iss *Issuer) IssueWaiver(handle core.GameHandle, battleTag string) (string, error) {
	now := time.Now()
	claims := WaiverClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   battleTag,
			Audience:  jwt.ClaimStrings{handle.String()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(iss.ttl)),
		},
		RealmName: iss.realmName,
		BattleTag: battleTag,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(iss.key)
	if err != nil {
		return "", fmt.Errorf("realm: sign waiver: %w", err)
	}
	return signed, nil
}

// Verifier checks waiver tokens presented at REQJOIN time against a set
// of trusted realm public keys.
type Verifier struct {
	trustedKeys map[string]*ecdsa.PublicKey
}

// NewVerifier builds a Verifier that accepts tokens signed by any of the
// given realm public keys, keyed by realm name.
func NewVerifier(trustedKeys map[string]*ecdsa.PublicKey) *Verifier {
	return &Verifier{trustedKeys: trustedKeys}
}

// Verify checks tokenString is a currently-valid waiver for handle,
// signed by a trusted realm, and returns the BattleTag it vouches for.
func (v *Verifier) Verify(tokenString string, handle core.GameHandle) (string, error) {
	var claims WaiverClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		realmName, _ := t.Claims.(*WaiverClaims)
		if realmName == nil {
			return nil, fmt.Errorf("missing claims")
		}
		key, ok := v.trustedKeys[realmName.RealmName]
		if !ok {
			return nil, fmt.Errorf("untrusted realm %q", realmName.RealmName)
		}
		return key, nil
	}, jwt.WithAudience(handle.String()))
	if err != nil {
		return "", fmt.Errorf("realm: verify waiver: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("realm: invalid waiver token")
	}
	return claims.BattleTag, nil
}
