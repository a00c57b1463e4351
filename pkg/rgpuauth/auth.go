// Package rgpuauth implements the Hello/Authenticate/AuthResult handshake
// that gates every transport connection before a session is opened: the
// server hands the client a random challenge, the client proves knowledge
// of its shared token by HMAC-signing that challenge, and the server
// verifies the signature in constant time. No password hashing or JWT
// issuance is involved -- the token is a pre-shared secret, not a user
// credential, so the design borrows only the HMAC and constant-time-compare
// primitives from the authenticator, not its bcrypt/JWT machinery.
package rgpuauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// ChallengeSize is the minimum number of random bytes sent in Hello, per
// the handshake invariant that the challenge must not be guessable or
// replayable across connections.
const ChallengeSize = 32

var (
	ErrTokenUnknown    = errors.New("rgpuauth: token not recognized")
	ErrBadSignature    = errors.New("rgpuauth: challenge response does not match")
	ErrChallengeTooSmall = errors.New("rgpuauth: challenge shorter than minimum size")
)

// GenerateChallenge returns ChallengeSize cryptographically random bytes
// for a server to send in its Hello response.
func GenerateChallenge() ([]byte, error) {
	buf := make([]byte, ChallengeSize)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("rgpuauth: generating challenge: %w", err)
	}
	return buf, nil
}

// GenerateToken returns a random hex-encoded token of the given byte
// length, suitable for an operator to paste into a server's Security
// config and a client's config file.
func GenerateToken(numBytes int) (string, error) {
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rgpuauth: generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SignChallenge computes HMAC-SHA256(token, challenge), the value a client
// sends back as Authenticate.challenge_response.
func SignChallenge(token string, challenge []byte) []byte {
	mac := hmac.New(sha256.New, []byte(token))
	mac.Write(challenge)
	return mac.Sum(nil)
}

// VerifyChallenge reports whether response is the correct HMAC of
// challenge under token, using a constant-time comparison so the
// handshake leaks no timing signal about how many signature bytes matched.
func VerifyChallenge(token string, challenge, response []byte) bool {
	expected := SignChallenge(token, challenge)
	return subtle.ConstantTimeCompare(expected, response) == 1
}

// AuditFunc receives one event per authentication attempt; callers wire
// this to whatever logging sink the server uses.
type AuditFunc func(event AuditEvent)

// AuditEvent records the outcome of one Authenticate attempt.
type AuditEvent struct {
	PeerName string
	Success  bool
	Reason   string
}

// Authenticator validates client tokens against a fixed set configured at
// startup. Tokens are opaque shared secrets (server operators distribute
// them out of band); there is no per-user registry or password policy.
type Authenticator struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
	audit  AuditFunc
}

// NewAuthenticator builds an Authenticator that accepts exactly the given
// tokens.
func NewAuthenticator(validTokens []string) *Authenticator {
	a := &Authenticator{tokens: make(map[string]struct{}, len(validTokens))}
	for _, t := range validTokens {
		a.tokens[t] = struct{}{}
	}
	return a
}

// SetAuditLogger installs a callback invoked once per Authenticate attempt.
func (a *Authenticator) SetAuditLogger(fn AuditFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audit = fn
}

// Verify checks token against the configured set and, if present,
// verifies response against challenge. peerName is used only for
// audit logging.
func (a *Authenticator) Verify(peerName, token string, challenge, response []byte) error {
	a.mu.RLock()
	_, known := a.tokens[token]
	audit := a.audit
	a.mu.RUnlock()

	if !known {
		a.report(audit, peerName, false, "unknown token")
		return ErrTokenUnknown
	}
	if len(challenge) < ChallengeSize {
		a.report(audit, peerName, false, "challenge too small")
		return ErrChallengeTooSmall
	}
	if !VerifyChallenge(token, challenge, response) {
		a.report(audit, peerName, false, "bad signature")
		return ErrBadSignature
	}
	a.report(audit, peerName, true, "")
	return nil
}

func (a *Authenticator) report(fn AuditFunc, peerName string, success bool, reason string) {
	if fn == nil {
		return
	}
	fn(AuditEvent{PeerName: peerName, Success: success, Reason: reason})
}
