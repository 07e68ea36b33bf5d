// Package graph correlates parsed rebuild observations into root causes
// and their downstream cascades.
//
// Rebuild triggers form a directed acyclic graph: root causes (file, env
// var, or configuration changes) have no incoming edges, and a dependency
// cascade on package B creates an edge from every node whose package is the
// named dependency to B. The graph is populated node by node while a log
// stream is consumed, then queried once the stream ends; the two phases are
// not interleaved.
package graph

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/wvhulle/cargo-dirty/pkg/model"
)

type dedupEntry struct {
	packageName string
	reasonKey   string
}

// RebuildGraph is an append-only, deduplicating store of rebuild nodes.
// Adjacency is materialized eagerly on a gonum directed graph so that chain
// queries are plain reachability instead of repeated scans of the node
// list.
type RebuildGraph struct {
	nodes []model.RebuildNode
	dag   *simple.DirectedGraph

	// rootsByName maps a normalized package name to the root-cause nodes
	// for that package, in insertion order.
	rootsByName map[string][]int
	// nodesByName maps a normalized package name to every node for that
	// package.
	nodesByName map[string][]int
	// cascadesByDep maps a normalized dependency name to the cascade nodes
	// naming it.
	cascadesByDep map[string][]int

	seen map[dedupEntry]struct{}
}

// New creates an empty rebuild graph.
func New() *RebuildGraph {
	return &RebuildGraph{
		dag:           simple.NewDirectedGraph(),
		rootsByName:   make(map[string][]int),
		nodesByName:   make(map[string][]int),
		cascadesByDep: make(map[string][]int),
		seen:          make(map[dedupEntry]struct{}),
	}
}

// AddNode inserts a rebuild observation, deduplicating by normalized
// package name and reason category. Cargo emits the same logical trigger
// once per build profile or target kind; only the first occurrence is
// stored. Returns the node index and whether the node was inserted.
func (g *RebuildGraph) AddNode(node model.RebuildNode) (int, bool) {
	name := normalizedPackageName(node.Package.PackageID)
	entry := dedupEntry{packageName: name, reasonKey: node.Reason.DedupKey()}
	if _, dup := g.seen[entry]; dup {
		return 0, false
	}
	g.seen[entry] = struct{}{}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.dag.AddNode(simple.Node(idx))

	// Wire edges in both directions of time: earlier nodes for this node's
	// dependency are its causes, and earlier cascades naming this node's
	// package are its effects.
	if dep, ok := node.Reason.(model.UnitDependencyInfoChanged); ok {
		depName := model.NormalizeCrateName(dep.Name)
		for _, cause := range g.nodesByName[depName] {
			g.setEdge(cause, idx)
		}
		g.cascadesByDep[depName] = append(g.cascadesByDep[depName], idx)
	}
	for _, effect := range g.cascadesByDep[name] {
		g.setEdge(idx, effect)
	}

	g.nodesByName[name] = append(g.nodesByName[name], idx)
	if node.IsRootCause() {
		g.rootsByName[name] = append(g.rootsByName[name], idx)
	}
	return idx, true
}

func (g *RebuildGraph) setEdge(from, to int) {
	if from == to {
		return
	}
	f, t := int64(from), int64(to)
	if !g.dag.HasEdgeFromTo(f, t) {
		g.dag.SetEdge(g.dag.NewEdge(simple.Node(f), simple.Node(t)))
	}
}

// Nodes returns all stored nodes in insertion order.
func (g *RebuildGraph) Nodes() []model.RebuildNode {
	return g.nodes
}

// Len returns the number of stored nodes.
func (g *RebuildGraph) Len() int {
	return len(g.nodes)
}

// IsEmpty reports whether no rebuild triggers were recorded.
func (g *RebuildGraph) IsEmpty() bool {
	return len(g.nodes) == 0
}

// RootCauses returns every node that is not a dependency cascade, in
// insertion order.
func (g *RebuildGraph) RootCauses() []model.RebuildNode {
	var roots []model.RebuildNode
	for _, n := range g.nodes {
		if n.IsRootCause() {
			roots = append(roots, n)
		}
	}
	return roots
}

// RootCauseChains pairs every root cause with the cascades reachable from
// it. A node reachable from two distinct root causes appears in both
// chains: each chain answers "what did this root cause pull in" on its own.
func (g *RebuildGraph) RootCauseChains() []model.RootCauseChain {
	var chains []model.RootCauseChain
	for idx, n := range g.nodes {
		if !n.IsRootCause() {
			continue
		}
		chains = append(chains, model.RootCauseChain{
			RootCause:        n,
			AffectedPackages: g.affectedBy(idx),
		})
	}
	return chains
}

// affectedBy collects the cascade nodes reachable from the root index,
// reported in insertion order.
func (g *RebuildGraph) affectedBy(rootIdx int) []model.RebuildNode {
	reached := make(map[int]bool)
	queue := []int{rootIdx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		it := g.dag.From(int64(cur))
		for it.Next() {
			next := int(it.Node().ID())
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}

	var affected []model.RebuildNode
	for idx, n := range g.nodes {
		if idx != rootIdx && reached[idx] && !n.IsRootCause() {
			affected = append(affected, n)
		}
	}
	return affected
}

// CausalChain walks from a node back to its root cause, returning the path
// in cause-to-effect order. When several root causes exist for the same
// dependency name, the first-inserted one wins; this is a documented
// approximation, not a full graph search.
func (g *RebuildGraph) CausalChain(idx int) []model.RebuildNode {
	node := g.nodes[idx]
	if dep, ok := node.Reason.(model.UnitDependencyInfoChanged); ok {
		causes := g.rootsByName[model.NormalizeCrateName(dep.Name)]
		if len(causes) > 0 {
			return append(g.CausalChain(causes[0]), node)
		}
	}
	return []model.RebuildNode{node}
}

// Cycles returns any circular cause attributions found in the log. A
// healthy cargo log yields a DAG; a cycle means the log named two packages
// as each other's rebuild cause and chain output for them is unreliable.
func (g *RebuildGraph) Cycles() [][]model.RebuildNode {
	var cycles [][]model.RebuildNode
	for _, scc := range topo.TarjanSCC(g.dag) {
		if len(scc) < 2 {
			continue
		}
		cycle := make([]model.RebuildNode, 0, len(scc))
		for _, n := range scc {
			cycle = append(cycle, g.nodes[int(n.ID())])
		}
		cycles = append(cycles, cycle)
	}
	return cycles
}

func normalizedPackageName(packageID string) string {
	return model.NormalizeCrateName(model.PackageName(packageID))
}
