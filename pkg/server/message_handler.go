package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/log"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// MessageHandler routes decoded service requests to the owning service
// under the session's exclusive lock. One handler serves one session.
type MessageHandler struct {
	server  *ServerState
	session *SessionState

	discovery      DiscoveryService
	sessions       SessionService
	view           ViewService
	subscriptions  SubscriptionService
	monitoredItems MonitoredItemService
}

// NewMessageHandler creates a handler for the given session.
func NewMessageHandler(server *ServerState, session *SessionState) *MessageHandler {
	return &MessageHandler{
		server:  server,
		session: session,
	}
}

// Handle dispatches one request and returns the service's response or its
// failure status unchanged; the handler adds no translation of its own.
// Requests with no registered service fail with BadServiceUnsupported; the
// failure is per-call and the session stays usable.
//
// A nil, nil return means the response is deferred: Publish responses are
// delivered later by the publish driver.
//
// The session lock is held across the entire dispatch, including the
// service call, so session mutations become visible only once Handle
// returns.
func (h *MessageHandler) Handle(msg ua.Request) (ua.Response, error) {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()

	now := time.Now()
	h.session.expireIfIdle(now)

	var (
		resp ua.Response
		err  error
	)
	switch req := msg.(type) {
	case *ua.GetEndpointsRequest:
		resp, err = h.discovery.GetEndpoints(h.server, h.session, req)
	case *ua.CreateSessionRequest:
		resp, err = h.sessions.CreateSession(h.server, h.session, req)
	case *ua.ActivateSessionRequest:
		resp, err = h.sessions.ActivateSession(h.server, h.session, req)
	case *ua.CloseSessionRequest:
		resp, err = h.sessions.CloseSession(h.server, h.session, req)
	case *ua.BrowseRequest:
		resp, err = h.view.Browse(h.server, h.session, req)
	case *ua.CreateSubscriptionRequest:
		resp, err = h.subscriptions.CreateSubscription(h.server, h.session, req)
	case *ua.ModifySubscriptionRequest:
		resp, err = h.subscriptions.ModifySubscription(h.server, h.session, req)
	case *ua.DeleteSubscriptionsRequest:
		resp, err = h.subscriptions.DeleteSubscriptions(h.server, h.session, req)
	case *ua.SetPublishingModeRequest:
		resp, err = h.subscriptions.SetPublishingMode(h.server, h.session, req)
	case *ua.PublishRequest:
		err = h.subscriptions.Publish(h.server, h.session, req)
	case *ua.RepublishRequest:
		resp, err = h.subscriptions.Republish(h.server, h.session, req)
	case *ua.CreateMonitoredItemsRequest:
		resp, err = h.monitoredItems.CreateMonitoredItems(h.server, h.session, req)
	case *ua.ModifyMonitoredItemsRequest:
		resp, err = h.monitoredItems.ModifyMonitoredItems(h.server, h.session, req)
	case *ua.DeleteMonitoredItemsRequest:
		resp, err = h.monitoredItems.DeleteMonitoredItems(h.server, h.session, req)
	default:
		err = ua.BadServiceUnsupported
	}

	// Unrecognized kinds leave the session untouched, including its
	// idle-timeout clock.
	if err != ua.BadServiceUnsupported {
		h.session.touch(now)
	}

	h.logDispatch(msg, err)
	return resp, err
}

func (h *MessageHandler) logDispatch(msg ua.Request, err error) {
	event := log.Event{
		Timestamp: time.Now(),
		SessionID: h.session.sessionID.String(),
		Direction: log.DirectionIn,
		Category:  log.CategoryService,
		Service: &log.ServiceEvent{
			RequestType:   requestTypeName(msg),
			RequestHandle: msg.Header().RequestHandle,
		},
	}
	if code, ok := err.(ua.StatusCode); ok {
		event.Service.ServiceResult = uint32(code)
	}
	h.server.logger().Log(event)
}

// requestTypeName strips the package qualifier and pointer marker from the
// request's type name, e.g. "CreateSubscriptionRequest".
func requestTypeName(msg ua.Request) string {
	name := fmt.Sprintf("%T", msg)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// responseHeader builds the response header echoing the request handle.
func responseHeader(req *ua.RequestHeader) ua.ResponseHeader {
	return ua.ResponseHeader{
		Timestamp:     time.Now(),
		RequestHandle: req.RequestHandle,
		ServiceResult: ua.Good,
	}
}
