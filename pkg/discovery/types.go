package discovery

import "errors"

const (
	// ServiceType is the mDNS service type for OPC UA TCP endpoints.
	ServiceType = "_opcua-tcp._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the registered OPC UA TCP port.
	DefaultPort = 4840

	// MaxInstanceNameLen caps the advertised instance name; longer names
	// are truncated.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	// TXTKeyPath is the resource path appended to the endpoint URL.
	TXTKeyPath = "path"

	// TXTKeyCaps is the comma-separated server capability list.
	TXTKeyCaps = "caps"
)

// Server capability identifiers carried in the caps TXT record.
const (
	CapabilityNone            = "NA"
	CapabilityDataAccess      = "DA"
	CapabilityHistoricalData  = "HD"
	CapabilityAlarmsAndEvents = "AC"
)

// Discovery errors.
var (
	ErrMissingRequired = errors.New("missing required TXT record")
	ErrInvalidPort     = errors.New("invalid port")
)

// EndpointInfo describes one advertised OPC UA endpoint.
type EndpointInfo struct {
	// InstanceName is the mDNS service instance name, usually the
	// application name.
	InstanceName string

	// Port is the TCP port the endpoint listens on.
	Port uint16

	// Path is the resource path of the endpoint, e.g. "/".
	Path string

	// Capabilities lists the server capability identifiers.
	Capabilities []string
}

// DiscoveredServer is one server found by browsing, with the addresses it
// resolved to.
type DiscoveredServer struct {
	EndpointInfo

	// HostName is the target host from the SRV record.
	HostName string

	// Addresses are the resolved IP addresses as strings.
	Addresses []string
}
