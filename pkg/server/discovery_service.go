package server

import "github.com/BogdanYarotsky/opcua/pkg/ua"

// DiscoveryService answers endpoint discovery requests. Discovery needs no
// session, so requests are served even before CreateSession.
type DiscoveryService struct{}

// GetEndpoints returns the server's endpoint descriptions. The endpoint URL
// in the request is advisory; all configured endpoints are returned.
func (DiscoveryService) GetEndpoints(server *ServerState, session *SessionState, req *ua.GetEndpointsRequest) (*ua.GetEndpointsResponse, error) {
	return &ua.GetEndpointsResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
		Endpoints:      server.Endpoints,
	}, nil
}
