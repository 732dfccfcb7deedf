package audiograph

import "audiograph/internal/graph"

// NodeID identifies a node in a Context's graph.
type NodeID = graph.NodeID

// Reserved node ids: the destination is always node 0, the listener is
// node 1, and its nine coordinate nodes occupy 2..10 (assigned
// dynamically in ensureListener). Every other NodeID is allocated by
// Context.allocID starting at firstDynamicID.
const (
	DestinationID NodeID = 0
	ListenerID    NodeID = 1

	firstDynamicID NodeID = 11
)
