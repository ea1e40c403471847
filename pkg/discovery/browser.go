package discovery

import (
	"context"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures browse behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds FindServers when the caller's context has no
	// deadline. Default: 10 seconds.
	BrowseTimeout time.Duration
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: 10 * time.Second,
	}
}

// MDNSBrowser finds advertised OPC UA endpoints using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// FindServers browses for endpoint announcements until the context ends.
// Each distinct instance is emitted once; later sightings merge their
// addresses into the already-emitted entry.
func (b *MDNSBrowser) FindServers(ctx context.Context) (<-chan *DiscoveredServer, error) {
	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok && b.config.BrowseTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.config.BrowseTimeout)
	}

	out := make(chan *DiscoveredServer)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		defer cancel()

		seen := make(map[string]*DiscoveredServer)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := newDiscoveredServer(entry.Instance, entry.HostName, entry.Port, entry.Text, entryAddresses(entry))
				if svc == nil {
					continue
				}
				if existing, found := seen[svc.InstanceName]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				seen[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}
			case <-removed:
				// Withdrawn announcements are not re-emitted.
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	}()

	return out, nil
}

// newDiscoveredServer builds a DiscoveredServer from raw announcement
// fields, or nil when the TXT records do not decode.
func newDiscoveredServer(instance, hostName string, port int, text, addresses []string) *DiscoveredServer {
	info, err := DecodeEndpointTXT(ParseTXTStrings(text))
	if err != nil {
		return nil
	}
	info.InstanceName = instance
	info.Port = uint16(port)

	return &DiscoveredServer{
		EndpointInfo: *info,
		HostName:     hostName,
		Addresses:    addresses,
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	var addrs []string
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

func mergeAddresses(existing, incoming []string) []string {
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a] = true
	}
	for _, a := range incoming {
		if !have[a] {
			existing = append(existing, a)
		}
	}
	return existing
}
