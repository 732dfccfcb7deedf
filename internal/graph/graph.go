package graph

import (
	"sort"

	"audiograph/internal/pool"
)

// Graph holds the render thread's view of the node set: node records keyed
// by id, the edge set indexed both ways for traversal, and a reusable
// topological-order buffer so Step doesn't allocate one every quantum.
type Graph struct {
	nodes    map[NodeID]*Node
	incoming map[NodeID][]Edge
	outgoing map[NodeID][]Edge

	order []NodeID // reused across Step calls
}

func newGraph() *Graph {
	return &Graph{
		nodes:    make(map[NodeID]*Node),
		incoming: make(map[NodeID][]Edge),
		outgoing: make(map[NodeID][]Edge),
	}
}

func (g *Graph) register(n *Node) {
	g.nodes[n.ID] = n
}

func (g *Graph) get(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// connect adds e to both adjacency indexes. incoming[e.DstNode] is kept
// sorted by ascending SrcNode so topoOrder's DFS visits independent
// predecessors in node-id order regardless of connection call order
// (spec's tie-break rule), without needing to sort on every Step.
func (g *Graph) connect(e Edge) {
	in := append(g.incoming[e.DstNode], e)
	sort.Slice(in, func(i, j int) bool { return in[i].SrcNode < in[j].SrcNode })
	g.incoming[e.DstNode] = in
	g.outgoing[e.SrcNode] = append(g.outgoing[e.SrcNode], e)
}

func edgeMatches(e Edge, dstNode NodeID, dstPort int, dstParam string) bool {
	if e.DstNode != dstNode {
		return false
	}
	if dstParam != "" {
		return e.DstParam == dstParam
	}
	return e.DstParam == "" && e.DstPort == dstPort
}

// disconnect removes edges from srcNode to (dstNode, dstPort|dstParam).
func (g *Graph) disconnect(srcNode, dstNode NodeID, dstPort int, dstParam string) {
	filter := func(edges []Edge) []Edge {
		out := edges[:0]
		for _, e := range edges {
			if e.SrcNode == srcNode && edgeMatches(e, dstNode, dstPort, dstParam) {
				continue
			}
			out = append(out, e)
		}
		return out
	}
	g.incoming[dstNode] = filter(g.incoming[dstNode])
	g.outgoing[srcNode] = filter(g.outgoing[srcNode])
}

// disconnectAll removes every edge whose source is node.
func (g *Graph) disconnectAll(node NodeID) {
	for _, e := range g.outgoing[node] {
		g.incoming[e.DstNode] = removeEdge(g.incoming[e.DstNode], e)
	}
	g.outgoing[node] = nil
}

func removeEdge(edges []Edge, target Edge) []Edge {
	out := edges[:0]
	for _, e := range edges {
		if e == target {
			continue
		}
		out = append(out, e)
	}
	return out
}

// remove detaches and deletes node, releasing its blocks to the pool.
func (g *Graph) remove(p *pool.Pool, node NodeID) {
	n, ok := g.nodes[node]
	if !ok {
		return
	}
	g.disconnectAll(node)
	for _, e := range g.incoming[node] {
		g.outgoing[e.SrcNode] = removeEdge(g.outgoing[e.SrcNode], e)
	}
	delete(g.incoming, node)
	n.release(p)
	delete(g.nodes, node)
}

const (
	unvisited = 0
	visiting  = 1
	done      = 2
)

// topoOrder computes a topological order of the subgraph reachable from
// destination, processing reverse edges (destination is the sink). Cycles
// among non-delay nodes are broken by reporting the closing back-edge in
// silenced so the caller can treat that edge's current-quantum input as
// silence instead of recursing into it.
func (g *Graph) topoOrder(destination NodeID) (order []NodeID, silenced map[Edge]bool) {
	state := make(map[NodeID]int, len(g.nodes))
	g.order = g.order[:0]
	silenced = make(map[Edge]bool)

	var visit func(id NodeID)
	visit = func(id NodeID) {
		state[id] = visiting
		for _, e := range g.incoming[id] {
			switch state[e.SrcNode] {
			case unvisited:
				if _, ok := g.nodes[e.SrcNode]; ok {
					visit(e.SrcNode)
				}
			case visiting:
				silenced[e] = true
			}
		}
		state[id] = done
		g.order = append(g.order, id)
	}

	if _, ok := g.nodes[destination]; ok {
		visit(destination)
	}
	return g.order, silenced
}
