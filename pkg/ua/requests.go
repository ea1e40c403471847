package ua

import "time"

// RequestHeader is common to every service request.
type RequestHeader struct {
	// AuthenticationToken is the secret session token issued by
	// CreateSession and required once the session is activated.
	AuthenticationToken NodeID

	// Timestamp is when the client generated the request.
	Timestamp time.Time

	// RequestHandle is a client-assigned id echoed in the response.
	RequestHandle uint32
}

// Header returns the embedded header. Embedding RequestHeader in a
// request struct is what marks it as a member of the supported-message set.
func (h *RequestHeader) Header() *RequestHeader { return h }

// ResponseHeader is common to every service response.
type ResponseHeader struct {
	Timestamp     time.Time
	RequestHandle uint32
	ServiceResult StatusCode
}

// Header returns the embedded header.
func (h *ResponseHeader) Header() *ResponseHeader { return h }

// Request is any decoded service request the message handler can route.
// The set of implementations is closed: the handler type-switches over it
// and fails unknown kinds with BadServiceUnsupported.
type Request interface {
	Header() *RequestHeader
}

// Response is any service response returned by the message handler.
type Response interface {
	Header() *ResponseHeader
}

// GetEndpointsRequest asks for the endpoints the server exposes.
type GetEndpointsRequest struct {
	RequestHeader
	EndpointURL string
}

// GetEndpointsResponse lists the server's endpoints.
type GetEndpointsResponse struct {
	ResponseHeader
	Endpoints []EndpointDescription
}

// CreateSessionRequest opens a new session.
type CreateSessionRequest struct {
	RequestHeader
	ClientDescription       ApplicationDescription
	SessionName             string
	RequestedSessionTimeout float64
}

// CreateSessionResponse carries the session id and authentication token.
type CreateSessionResponse struct {
	ResponseHeader
	SessionID             NodeID
	AuthenticationToken   NodeID
	RevisedSessionTimeout float64
}

// ActivateSessionRequest activates a created session. Identity-token
// validation beyond the authentication token is handled by the security
// layer outside this module.
type ActivateSessionRequest struct {
	RequestHeader
	LocaleIDs []string
}

// ActivateSessionResponse confirms activation.
type ActivateSessionResponse struct {
	ResponseHeader
	ServerNonce []byte
}

// CloseSessionRequest terminates the session. When DeleteSubscriptions is
// false the drained subscriptions are handed to a transfer target instead
// of being discarded.
type CloseSessionRequest struct {
	RequestHeader
	DeleteSubscriptions bool
}

// CloseSessionResponse confirms the close.
type CloseSessionResponse struct {
	ResponseHeader
}

// BrowseRequest browses the address space.
type BrowseRequest struct {
	RequestHeader
	NodesToBrowse                 []BrowseDescription
	RequestedMaxReferencesPerNode uint32
}

// BrowseResponse carries one result per browsed node.
type BrowseResponse struct {
	ResponseHeader
	Results []BrowseResult
}

// CreateSubscriptionRequest creates a subscription on the session.
type CreateSubscriptionRequest struct {
	RequestHeader
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	PublishingEnabled           bool
	Priority                    uint8
}

// CreateSubscriptionResponse carries the subscription id and the revised
// timing parameters.
type CreateSubscriptionResponse struct {
	ResponseHeader
	SubscriptionID            uint32
	RevisedPublishingInterval float64
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

// ModifySubscriptionRequest changes a subscription's parameters.
type ModifySubscriptionRequest struct {
	RequestHeader
	SubscriptionID              uint32
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	Priority                    uint8
}

// ModifySubscriptionResponse carries the revised timing parameters.
type ModifySubscriptionResponse struct {
	ResponseHeader
	RevisedPublishingInterval float64
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

// DeleteSubscriptionsRequest deletes subscriptions by id.
type DeleteSubscriptionsRequest struct {
	RequestHeader
	SubscriptionIDs []uint32
}

// DeleteSubscriptionsResponse carries one status per requested id.
type DeleteSubscriptionsResponse struct {
	ResponseHeader
	Results []StatusCode
}

// SetPublishingModeRequest enables or disables publishing on a batch of
// subscriptions. The batch never aborts; each id gets its own result.
type SetPublishingModeRequest struct {
	RequestHeader
	PublishingEnabled bool
	SubscriptionIDs   []uint32
}

// SetPublishingModeResponse carries one status per requested id.
type SetPublishingModeResponse struct {
	ResponseHeader
	Results []StatusCode
}

// CreateMonitoredItemsRequest adds monitored items to a subscription.
type CreateMonitoredItemsRequest struct {
	RequestHeader
	SubscriptionID uint32
	ItemsToCreate  []MonitoredItemCreateRequest
}

// CreateMonitoredItemsResponse carries one result per requested item.
type CreateMonitoredItemsResponse struct {
	ResponseHeader
	Results []MonitoredItemCreateResult
}

// ModifyMonitoredItemsRequest changes monitored item settings.
type ModifyMonitoredItemsRequest struct {
	RequestHeader
	SubscriptionID uint32
	ItemsToModify  []MonitoredItemModifyRequest
}

// ModifyMonitoredItemsResponse carries one result per requested item.
type ModifyMonitoredItemsResponse struct {
	ResponseHeader
	Results []MonitoredItemModifyResult
}

// DeleteMonitoredItemsRequest removes monitored items by id.
type DeleteMonitoredItemsRequest struct {
	RequestHeader
	SubscriptionID   uint32
	MonitoredItemIDs []uint32
}

// DeleteMonitoredItemsResponse carries one status per requested id.
type DeleteMonitoredItemsResponse struct {
	ResponseHeader
	Results []StatusCode
}

// PublishRequest acknowledges received notification messages and queues a
// publish slot the server fills when a subscription next has something to
// send. The matching PublishResponse is therefore delivered asynchronously
// by the publish driver, not returned from dispatch.
type PublishRequest struct {
	RequestHeader
	SubscriptionAcknowledgements []SubscriptionAcknowledgement
}

// PublishResponse delivers one notification message for one subscription.
type PublishResponse struct {
	ResponseHeader
	SubscriptionID           uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications        bool
	NotificationMessage      NotificationMessage

	// Results answers the acknowledgements carried by the publish request
	// this response consumes, in order.
	Results []StatusCode
}

// RepublishRequest asks for the retransmission of an unacknowledged
// notification message.
type RepublishRequest struct {
	RequestHeader
	SubscriptionID           uint32
	RetransmitSequenceNumber uint32
}

// RepublishResponse carries the retransmitted message.
type RepublishResponse struct {
	ResponseHeader
	NotificationMessage NotificationMessage
}
