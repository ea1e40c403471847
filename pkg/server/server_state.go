package server

import (
	"sync/atomic"

	"github.com/BogdanYarotsky/opcua/pkg/log"
	"github.com/BogdanYarotsky/opcua/pkg/subscription"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// AddressSpace is the node-management collaborator the view service
// browses. Implementations must be safe for concurrent use and must not
// block indefinitely: Browse is called while the session lock is held.
type AddressSpace interface {
	Browse(nodesToBrowse []ua.BrowseDescription, maxReferencesPerNode uint32) []ua.BrowseResult
}

// Limits are the server-wide bounds applied when revising client-requested
// subscription parameters.
type Limits struct {
	// MaxSubscriptionsPerSession caps the registry size of one session.
	MaxSubscriptionsPerSession int

	// MinPublishingInterval is the smallest accepted publishing interval
	// in milliseconds.
	MinPublishingInterval float64

	// MaxLifetimeCount caps the requested lifetime count.
	MaxLifetimeCount uint32

	// MaxKeepAliveCount caps the requested max keep-alive count.
	MaxKeepAliveCount uint32

	// MaxPublishRequests caps the session's queue of outstanding publish
	// requests.
	MaxPublishRequests int
}

// DefaultLimits returns the server defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxSubscriptionsPerSession: 50,
		MinPublishingInterval:      50,
		MaxLifetimeCount:           10000,
		MaxKeepAliveCount:          1000,
		MaxPublishRequests:         100,
	}
}

// TransferSink receives the subscriptions drained from a closing session
// when the client asked for them to be kept alive rather than deleted.
type TransferSink func(subscriptions map[uint32]*subscription.Subscription)

// ServerState is the server-wide context passed into every service call.
// Its id counters are atomic so sessions can be created from several
// transports; everything else is read-only after construction.
type ServerState struct {
	// Application describes this server in session and endpoint metadata.
	Application ua.ApplicationDescription

	// Endpoints is the endpoint metadata returned by GetEndpoints.
	Endpoints []ua.EndpointDescription

	// AddressSpace serves Browse requests.
	AddressSpace AddressSpace

	// Limits bound client-requested subscription parameters.
	Limits Limits

	// Transfer receives drained subscriptions on CloseSession with
	// deleteSubscriptions=false. When nil the drained subscriptions are
	// closed instead.
	Transfer TransferSink

	// Logger receives server events. Nil disables logging.
	Logger log.Logger

	nextSessionID      atomic.Uint32
	nextSubscriptionID atomic.Uint32
}

// NewServerState creates server state with the given endpoints and limits.
func NewServerState(app ua.ApplicationDescription, endpoints []ua.EndpointDescription, space AddressSpace, limits Limits) *ServerState {
	return &ServerState{
		Application:  app,
		Endpoints:    endpoints,
		AddressSpace: space,
		Limits:       limits,
		Logger:       log.NoopLogger{},
	}
}

// NextSessionID issues a server-unique session number.
func (s *ServerState) NextSessionID() uint32 {
	return s.nextSessionID.Add(1)
}

// NextSubscriptionID issues a server-unique subscription id. Ids are never
// reused, so a deleted subscription's id stays dead.
func (s *ServerState) NextSubscriptionID() uint32 {
	return s.nextSubscriptionID.Add(1)
}

func (s *ServerState) logger() log.Logger {
	if s.Logger == nil {
		return log.NoopLogger{}
	}
	return s.Logger
}
