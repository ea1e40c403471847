package server

import (
	"sync"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/subscription"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// queuedPublish is one outstanding publish request: a slot the publish
// driver fills with the next notification message, plus the answers to the
// acknowledgements the request carried.
type queuedPublish struct {
	requestHandle uint32
	ackResults    []ua.StatusCode
}

// SessionState is the per-connection state guarded by the session's
// exclusive lock. The message handler and the publish driver both hold the
// lock for the full duration of a dispatch or tick, so everything below the
// lock is plain data.
type SessionState struct {
	mu sync.Mutex

	sessionID           ua.NodeID
	authenticationToken ua.NodeID
	sessionName         string
	sessionTimeout      float64

	created   bool
	activated bool

	lastRequestAt time.Time

	subscriptions *subscription.Registry
	publishQueue  []queuedPublish
}

// NewSessionState creates session state with an empty registry. The session
// itself does not exist until CreateSession runs against it.
func NewSessionState() *SessionState {
	return &SessionState{
		subscriptions: subscription.NewRegistry(),
	}
}

// SessionID returns the session's id; the zero NodeID before CreateSession.
func (s *SessionState) SessionID() ua.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Activated reports whether ActivateSession has completed.
func (s *SessionState) Activated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activated
}

// SubscriptionIDs returns the session's live subscription ids, or nil when
// there are none.
func (s *SessionState) SubscriptionIDs() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscriptions.IDs()
}

// PendingPublishCount returns the number of queued publish requests.
func (s *SessionState) PendingPublishCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.publishQueue)
}

// SampleValue offers a sampled node value to every subscription's matching
// monitored items. This is the bridge between an address space's change
// feed and the subscriptions; it takes the session lock, so callers must
// not hold it.
func (s *SessionState) SampleValue(nodeID ua.NodeID, value ua.DataValue) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscriptions.Sample(nodeID, value)
}

// touch records request activity for the idle-timeout clock. Called with
// the session lock held.
func (s *SessionState) touch(now time.Time) {
	s.lastRequestAt = now
}

// expireIfIdle closes the session once it has outlived its negotiated
// timeout with no requests. Subscriptions stay in the registry and run out
// their own lifetimes. Called with the session lock held.
func (s *SessionState) expireIfIdle(now time.Time) bool {
	if !s.created || s.lastRequestAt.IsZero() {
		return false
	}
	timeout := time.Duration(s.sessionTimeout * float64(time.Millisecond))
	if timeout <= 0 || now.Sub(s.lastRequestAt) <= timeout {
		return false
	}
	s.created = false
	s.activated = false
	s.authenticationToken = ua.NodeID{}
	s.publishQueue = nil
	return true
}

// authorize checks the request header against the session. Called with the
// session lock held.
func (s *SessionState) authorize(h *ua.RequestHeader) error {
	if !s.created {
		return ua.BadSessionIDInvalid
	}
	if h.AuthenticationToken != s.authenticationToken {
		return ua.BadIdentityTokenInvalid
	}
	if !s.activated {
		return ua.BadSessionNotActivated
	}
	return nil
}

// hasPublishSlot reports whether an outstanding publish request is queued.
// Called with the session lock held.
func (s *SessionState) hasPublishSlot() bool {
	return len(s.publishQueue) > 0
}

// takePublishSlot pops the oldest outstanding publish request.
// Called with the session lock held.
func (s *SessionState) takePublishSlot() queuedPublish {
	slot := s.publishQueue[0]
	s.publishQueue = s.publishQueue[1:]
	return slot
}
