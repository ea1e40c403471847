package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// Address space errors.
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrNotAVariable  = errors.New("node is not a variable")
)

// Node is one entry in the static address space.
type Node struct {
	// ID is the node's identifier; must be unique within the space.
	ID ua.NodeID

	// BrowseName is the machine-readable name.
	BrowseName string

	// DisplayName is the human-readable name; defaults to BrowseName.
	DisplayName string

	// Class classifies the node.
	Class ua.NodeClass

	// Value is the current value of a Variable node.
	Value ua.DataValue
}

// ValueChangeFunc observes writes to variable nodes. It is called outside
// the space's lock.
type ValueChangeFunc func(id ua.NodeID, value ua.DataValue)

// StaticAddressSpace is an in-memory node tree serving Browse and holding
// variable values. It is the minimal node manager the server binary and
// tests run with; real deployments plug their own AddressSpace in.
type StaticAddressSpace struct {
	mu sync.RWMutex

	nodes    map[ua.NodeID]*Node
	children map[ua.NodeID][]ua.NodeID
	parents  map[ua.NodeID]ua.NodeID

	onChange ValueChangeFunc
}

// NewStaticAddressSpace creates an address space containing only the root
// object.
func NewStaticAddressSpace() *StaticAddressSpace {
	s := &StaticAddressSpace{
		nodes:    make(map[ua.NodeID]*Node),
		children: make(map[ua.NodeID][]ua.NodeID),
		parents:  make(map[ua.NodeID]ua.NodeID),
	}
	root := RootNodeID()
	s.nodes[root] = &Node{
		ID:          root,
		BrowseName:  "Root",
		DisplayName: "Root",
		Class:       ua.NodeClassObject,
	}
	return s
}

// RootNodeID returns the id of the root object every space starts with.
func RootNodeID() ua.NodeID {
	return ua.NewNodeID(0, "Root")
}

// OnValueChange registers the value-change observer. Only one observer is
// supported; a second call replaces the first.
func (s *StaticAddressSpace) OnValueChange(fn ValueChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// AddNode inserts a node under the given parent.
func (s *StaticAddressSpace) AddNode(node Node, parent ua.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.ID]; ok {
		return ErrDuplicateNode
	}
	if _, ok := s.nodes[parent]; !ok {
		return ErrNodeNotFound
	}
	if node.DisplayName == "" {
		node.DisplayName = node.BrowseName
	}
	s.nodes[node.ID] = &node
	s.children[parent] = append(s.children[parent], node.ID)
	s.parents[node.ID] = parent
	return nil
}

// ReadValue returns the current value of a variable node.
func (s *StaticAddressSpace) ReadValue(id ua.NodeID) (ua.DataValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return ua.DataValue{}, ErrNodeNotFound
	}
	if node.Class != ua.NodeClassVariable {
		return ua.DataValue{}, ErrNotAVariable
	}
	return node.Value, nil
}

// WriteValue updates a variable node and notifies the change observer. The
// server timestamp is stamped here; the source timestamp is the caller's.
func (s *StaticAddressSpace) WriteValue(id ua.NodeID, value ua.DataValue) error {
	s.mu.Lock()
	node, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return ErrNodeNotFound
	}
	if node.Class != ua.NodeClassVariable {
		s.mu.Unlock()
		return ErrNotAVariable
	}
	value.ServerTimestamp = time.Now()
	node.Value = value
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(id, value)
	}
	return nil
}

// VariableIDs returns the ids of all variable nodes, sorted for stable
// iteration.
func (s *StaticAddressSpace) VariableIDs() []ua.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []ua.NodeID
	for id, node := range s.nodes {
		if node.Class == ua.NodeClassVariable {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Namespace != ids[j].Namespace {
			return ids[i].Namespace < ids[j].Namespace
		}
		return ids[i].ID < ids[j].ID
	})
	return ids
}

// Browse resolves each description against the node tree. Unknown starting
// nodes get BadNodeIDUnknown; the batch never aborts.
func (s *StaticAddressSpace) Browse(nodesToBrowse []ua.BrowseDescription, maxReferencesPerNode uint32) []ua.BrowseResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]ua.BrowseResult, len(nodesToBrowse))
	for i, desc := range nodesToBrowse {
		results[i] = s.browseOne(desc, maxReferencesPerNode)
	}
	return results
}

func (s *StaticAddressSpace) browseOne(desc ua.BrowseDescription, max uint32) ua.BrowseResult {
	if _, ok := s.nodes[desc.NodeID]; !ok {
		return ua.BrowseResult{StatusCode: ua.BadNodeIDUnknown}
	}

	var refs []ua.ReferenceDescription
	appendRef := func(id ua.NodeID, forward bool) {
		node := s.nodes[id]
		if desc.NodeClassMask != 0 && desc.NodeClassMask&uint32(node.Class) == 0 {
			return
		}
		refs = append(refs, ua.ReferenceDescription{
			NodeID:      node.ID,
			BrowseName:  node.BrowseName,
			DisplayName: node.DisplayName,
			NodeClass:   node.Class,
			IsForward:   forward,
		})
	}

	if desc.BrowseDirection == ua.BrowseDirectionForward || desc.BrowseDirection == ua.BrowseDirectionBoth {
		for _, child := range s.children[desc.NodeID] {
			appendRef(child, true)
		}
	}
	if desc.BrowseDirection == ua.BrowseDirectionInverse || desc.BrowseDirection == ua.BrowseDirectionBoth {
		if parent, ok := s.parents[desc.NodeID]; ok {
			appendRef(parent, false)
		}
	}

	if max > 0 && uint32(len(refs)) > max {
		refs = refs[:max]
	}
	return ua.BrowseResult{StatusCode: ua.Good, References: refs}
}
