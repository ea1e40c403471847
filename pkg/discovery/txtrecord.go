package discovery

import (
	"fmt"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeEndpointTXT creates the TXT records for an endpoint announcement.
func EncodeEndpointTXT(info *EndpointInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	path := info.Path
	if path == "" {
		path = "/"
	}
	txt[TXTKeyPath] = path

	caps := info.Capabilities
	if len(caps) == 0 {
		caps = []string{CapabilityNone}
	}
	txt[TXTKeyCaps] = strings.Join(caps, ",")

	return txt
}

// DecodeEndpointTXT parses the TXT records of an endpoint announcement.
func DecodeEndpointTXT(txt TXTRecordMap) (*EndpointInfo, error) {
	info := &EndpointInfo{}

	path, ok := txt[TXTKeyPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyPath)
	}
	info.Path = path

	caps, ok := txt[TXTKeyCaps]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyCaps)
	}
	for _, c := range strings.Split(caps, ",") {
		if c = strings.TrimSpace(c); c != "" {
			info.Capabilities = append(info.Capabilities, c)
		}
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXT record map to the key=value strings
// zeroconf registers.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	strs := make([]string, 0, len(txt))
	for k, v := range txt {
		strs = append(strs, k+"="+v)
	}
	return strs
}

// ParseTXTStrings converts key=value strings back into a TXT record map.
// Entries without an equals sign are ignored.
func ParseTXTStrings(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		if k, v, ok := strings.Cut(s, "="); ok {
			txt[k] = v
		}
	}
	return txt
}

// EndpointURL builds the opc.tcp URL for a discovered server, using the
// first resolved address.
func (s *DiscoveredServer) EndpointURL() string {
	host := s.HostName
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	path := s.Path
	if path == "/" {
		path = ""
	}
	return fmt.Sprintf("opc.tcp://%s:%d%s", host, s.Port, path)
}
