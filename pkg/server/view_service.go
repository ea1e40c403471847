package server

import "github.com/BogdanYarotsky/opcua/pkg/ua"

// ViewService serves address-space browsing. The address space itself is an
// external collaborator; the service only validates the call and delegates.
type ViewService struct{}

// Browse resolves each browse description against the server's address
// space. The collaborator is called under the session lock, so it must be
// bounded; long-running node IO belongs outside this layer.
func (ViewService) Browse(server *ServerState, session *SessionState, req *ua.BrowseRequest) (*ua.BrowseResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}
	if len(req.NodesToBrowse) == 0 {
		return nil, ua.BadNothingToDo
	}
	if server.AddressSpace == nil {
		return nil, ua.BadInternalError
	}

	return &ua.BrowseResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
		Results:        server.AddressSpace.Browse(req.NodesToBrowse, req.RequestedMaxReferencesPerNode),
	}, nil
}
