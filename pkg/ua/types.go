package ua

import (
	"fmt"
	"time"
)

// NodeID identifies a node in the server's address space. Only string
// identifiers are modeled here; the transport layer maps the protocol's
// numeric and GUID forms onto this representation before dispatch.
type NodeID struct {
	Namespace uint16
	ID        string
}

// NewNodeID creates a NodeID in the given namespace.
func NewNodeID(namespace uint16, id string) NodeID {
	return NodeID{Namespace: namespace, ID: id}
}

// IsNull returns true for the zero NodeID.
func (n NodeID) IsNull() bool {
	return n.Namespace == 0 && n.ID == ""
}

// String returns the ns=<n>;s=<id> form.
func (n NodeID) String() string {
	return fmt.Sprintf("ns=%d;s=%s", n.Namespace, n.ID)
}

// NodeClass classifies a node in the address space.
type NodeClass uint32

const (
	NodeClassUnspecified NodeClass = 0
	NodeClassObject      NodeClass = 1
	NodeClassVariable    NodeClass = 2
	NodeClassMethod      NodeClass = 4
	NodeClassView        NodeClass = 128
)

// String returns the node class name.
func (c NodeClass) String() string {
	switch c {
	case NodeClassObject:
		return "Object"
	case NodeClassVariable:
		return "Variable"
	case NodeClassMethod:
		return "Method"
	case NodeClassView:
		return "View"
	default:
		return "Unspecified"
	}
}

// DataValue is a value read from or reported for a variable, together with
// its quality and timestamps.
type DataValue struct {
	Value           any
	Status          StatusCode
	SourceTimestamp time.Time
	ServerTimestamp time.Time
}

// ApplicationDescription describes a client or server application.
type ApplicationDescription struct {
	ApplicationURI  string
	ProductURI      string
	ApplicationName string
}

// MessageSecurityMode is the security mode negotiated for an endpoint.
// Security negotiation itself is outside this module; the mode is carried
// only as endpoint metadata.
type MessageSecurityMode uint32

const (
	MessageSecurityModeNone           MessageSecurityMode = 1
	MessageSecurityModeSign           MessageSecurityMode = 2
	MessageSecurityModeSignAndEncrypt MessageSecurityMode = 3
)

// EndpointDescription describes one endpoint the server exposes.
type EndpointDescription struct {
	EndpointURL         string
	Server              ApplicationDescription
	SecurityMode        MessageSecurityMode
	SecurityPolicyURI   string
	TransportProfileURI string
}

// BrowseDirection selects which references Browse follows.
type BrowseDirection uint32

const (
	BrowseDirectionForward BrowseDirection = 0
	BrowseDirectionInverse BrowseDirection = 1
	BrowseDirectionBoth    BrowseDirection = 2
)

// BrowseDescription names one node to browse and how to browse it.
type BrowseDescription struct {
	NodeID          NodeID
	BrowseDirection BrowseDirection
	IncludeSubtypes bool
	NodeClassMask   uint32
}

// ReferenceDescription is one reference returned by Browse.
type ReferenceDescription struct {
	NodeID      NodeID
	BrowseName  string
	DisplayName string
	NodeClass   NodeClass
	IsForward   bool
}

// BrowseResult is the per-node outcome of a Browse call.
type BrowseResult struct {
	StatusCode StatusCode
	References []ReferenceDescription
}
