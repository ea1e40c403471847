package server

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BogdanYarotsky/opcua/pkg/log"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// Session timeout bounds in milliseconds.
const (
	minSessionTimeout = 1_000.0
	maxSessionTimeout = 3_600_000.0
)

// SessionService implements the session lifecycle: create, activate, close.
type SessionService struct{}

// CreateSession opens the session and issues its id and authentication
// token. The token is a secret the client must present in every subsequent
// request header.
func (SessionService) CreateSession(server *ServerState, session *SessionState, req *ua.CreateSessionRequest) (*ua.CreateSessionResponse, error) {
	if session.created {
		return nil, ua.BadTooManySessions
	}

	session.sessionID = ua.NewNodeID(1, fmt.Sprintf("session-%d", server.NextSessionID()))
	session.authenticationToken = ua.NewNodeID(0, uuid.NewString())
	session.sessionName = req.SessionName
	session.sessionTimeout = reviseSessionTimeout(req.RequestedSessionTimeout)
	session.created = true

	server.logger().Log(log.Event{
		Timestamp: time.Now(),
		SessionID: session.sessionID.String(),
		Direction: log.DirectionOut,
		Category:  log.CategorySession,
	})

	return &ua.CreateSessionResponse{
		ResponseHeader:        responseHeader(&req.RequestHeader),
		SessionID:             session.sessionID,
		AuthenticationToken:   session.authenticationToken,
		RevisedSessionTimeout: session.sessionTimeout,
	}, nil
}

// ActivateSession validates the authentication token and makes the session
// usable for the stateful services. Identity tokens and signature checks
// beyond the session token belong to the security layer outside this core.
func (SessionService) ActivateSession(server *ServerState, session *SessionState, req *ua.ActivateSessionRequest) (*ua.ActivateSessionResponse, error) {
	if !session.created {
		return nil, ua.BadSessionIDInvalid
	}
	if req.AuthenticationToken != session.authenticationToken {
		return nil, ua.BadIdentityTokenInvalid
	}
	session.activated = true

	nonce := uuid.New()
	return &ua.ActivateSessionResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
		ServerNonce:    nonce[:],
	}, nil
}

// CloseSession terminates the session and drains its registry. With
// deleteSubscriptions the drained subscriptions are closed; otherwise they
// are handed to the server's transfer sink, or closed when none is
// configured. Either way the registry ends empty and no two owners ever
// share a subscription.
func (SessionService) CloseSession(server *ServerState, session *SessionState, req *ua.CloseSessionRequest) (*ua.CloseSessionResponse, error) {
	if !session.created {
		return nil, ua.BadSessionIDInvalid
	}
	if req.AuthenticationToken != session.authenticationToken {
		return nil, ua.BadIdentityTokenInvalid
	}

	drained := session.subscriptions.Drain()
	if !req.DeleteSubscriptions && server.Transfer != nil {
		server.Transfer(drained)
	} else {
		for _, sub := range drained {
			sub.Close()
		}
	}

	session.created = false
	session.activated = false
	session.publishQueue = nil

	server.logger().Log(log.Event{
		Timestamp: time.Now(),
		SessionID: session.sessionID.String(),
		Direction: log.DirectionIn,
		Category:  log.CategorySession,
	})

	return &ua.CloseSessionResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
	}, nil
}

func reviseSessionTimeout(requested float64) float64 {
	switch {
	case requested < minSessionTimeout:
		return minSessionTimeout
	case requested > maxSessionTimeout:
		return maxSessionTimeout
	default:
		return requested
	}
}
