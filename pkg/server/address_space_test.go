package server

import (
	"testing"

	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

func buildSpace(t *testing.T) *StaticAddressSpace {
	t.Helper()
	space := NewStaticAddressSpace()

	objects := Node{ID: ua.NewNodeID(0, "Objects"), BrowseName: "Objects", Class: ua.NodeClassObject}
	if err := space.AddNode(objects, RootNodeID()); err != nil {
		t.Fatalf("AddNode(Objects) failed: %v", err)
	}
	temp := Node{
		ID:         ua.NewNodeID(2, "Temperature"),
		BrowseName: "Temperature",
		Class:      ua.NodeClassVariable,
		Value:      ua.DataValue{Value: 20.0, Status: ua.Good},
	}
	if err := space.AddNode(temp, objects.ID); err != nil {
		t.Fatalf("AddNode(Temperature) failed: %v", err)
	}
	return space
}

func TestAddNodeRejectsDuplicatesAndOrphans(t *testing.T) {
	space := buildSpace(t)

	err := space.AddNode(Node{ID: ua.NewNodeID(0, "Objects"), Class: ua.NodeClassObject}, RootNodeID())
	if err != ErrDuplicateNode {
		t.Errorf("duplicate AddNode error = %v, want ErrDuplicateNode", err)
	}

	err = space.AddNode(Node{ID: ua.NewNodeID(0, "X"), Class: ua.NodeClassObject}, ua.NewNodeID(9, "absent"))
	if err != ErrNodeNotFound {
		t.Errorf("orphan AddNode error = %v, want ErrNodeNotFound", err)
	}
}

func TestReadWriteValue(t *testing.T) {
	space := buildSpace(t)
	id := ua.NewNodeID(2, "Temperature")

	v, err := space.ReadValue(id)
	if err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	if v.Value != 20.0 {
		t.Errorf("initial value = %v, want 20", v.Value)
	}

	if err := space.WriteValue(id, ua.DataValue{Value: 21.5, Status: ua.Good}); err != nil {
		t.Fatalf("WriteValue failed: %v", err)
	}
	v, _ = space.ReadValue(id)
	if v.Value != 21.5 {
		t.Errorf("value after write = %v, want 21.5", v.Value)
	}
	if v.ServerTimestamp.IsZero() {
		t.Error("server timestamp not stamped on write")
	}

	if err := space.WriteValue(ua.NewNodeID(0, "Objects"), ua.DataValue{}); err != ErrNotAVariable {
		t.Errorf("WriteValue on object error = %v, want ErrNotAVariable", err)
	}
	if _, err := space.ReadValue(ua.NewNodeID(9, "absent")); err != ErrNodeNotFound {
		t.Errorf("ReadValue of absent node error = %v, want ErrNodeNotFound", err)
	}
}

func TestWriteValueNotifiesObserver(t *testing.T) {
	space := buildSpace(t)
	id := ua.NewNodeID(2, "Temperature")

	var gotID ua.NodeID
	var gotValue ua.DataValue
	space.OnValueChange(func(changed ua.NodeID, v ua.DataValue) {
		gotID = changed
		gotValue = v
	})

	if err := space.WriteValue(id, ua.DataValue{Value: 22.0, Status: ua.Good}); err != nil {
		t.Fatalf("WriteValue failed: %v", err)
	}
	if gotID != id {
		t.Errorf("observer got node %v, want %v", gotID, id)
	}
	if gotValue.Value != 22.0 {
		t.Errorf("observer got value %v, want 22", gotValue.Value)
	}
}

func TestBrowseDirectionsAndMask(t *testing.T) {
	space := buildSpace(t)
	objects := ua.NewNodeID(0, "Objects")

	results := space.Browse([]ua.BrowseDescription{
		{NodeID: objects, BrowseDirection: ua.BrowseDirectionForward},
		{NodeID: objects, BrowseDirection: ua.BrowseDirectionInverse},
		{NodeID: ua.NewNodeID(9, "absent")},
		{NodeID: objects, BrowseDirection: ua.BrowseDirectionForward, NodeClassMask: uint32(ua.NodeClassObject)},
	}, 0)
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	forward := results[0]
	if forward.StatusCode != ua.Good || len(forward.References) != 1 {
		t.Fatalf("forward browse = %+v", forward)
	}
	if ref := forward.References[0]; ref.BrowseName != "Temperature" || !ref.IsForward {
		t.Errorf("forward reference = %+v", ref)
	}

	inverse := results[1]
	if len(inverse.References) != 1 || inverse.References[0].NodeID != RootNodeID() {
		t.Errorf("inverse browse = %+v", inverse)
	}
	if inverse.References[0].IsForward {
		t.Error("inverse reference marked forward")
	}

	if results[2].StatusCode != ua.BadNodeIDUnknown {
		t.Errorf("absent node status = %v, want BadNodeIDUnknown", results[2].StatusCode)
	}

	// The mask admits only objects; the variable child is filtered out.
	if n := len(results[3].References); n != 0 {
		t.Errorf("masked browse returned %d references, want 0", n)
	}
}

func TestBrowseHonorsReferenceCap(t *testing.T) {
	space := buildSpace(t)
	objects := ua.NewNodeID(0, "Objects")
	for _, name := range []string{"Pressure", "Humidity"} {
		err := space.AddNode(Node{
			ID:         ua.NewNodeID(2, name),
			BrowseName: name,
			Class:      ua.NodeClassVariable,
		}, objects)
		if err != nil {
			t.Fatalf("AddNode(%s) failed: %v", name, err)
		}
	}

	results := space.Browse([]ua.BrowseDescription{
		{NodeID: objects, BrowseDirection: ua.BrowseDirectionForward},
	}, 2)
	if n := len(results[0].References); n != 2 {
		t.Errorf("capped browse returned %d references, want 2", n)
	}
}

func TestVariableIDsSorted(t *testing.T) {
	space := buildSpace(t)
	objects := ua.NewNodeID(0, "Objects")
	if err := space.AddNode(Node{
		ID:         ua.NewNodeID(2, "Pressure"),
		BrowseName: "Pressure",
		Class:      ua.NodeClassVariable,
	}, objects); err != nil {
		t.Fatal(err)
	}

	ids := space.VariableIDs()
	if len(ids) != 2 {
		t.Fatalf("got %d variable ids, want 2", len(ids))
	}
	if ids[0].ID != "Pressure" || ids[1].ID != "Temperature" {
		t.Errorf("ids = %v, want sorted [Pressure Temperature]", ids)
	}
}
