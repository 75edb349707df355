package graph

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/google/pprof/profile"
)

// The node/edge building below follows the graph package of the pprof tool
// (https://github.com/google/pprof), which is internal there. Nodes are kept
// at function granularity: every line of a function folds into one node.

// FromProfile builds a call graph from prof, weighted by its last sample
// type (cpu nanoseconds for a Go CPU profile). Nodes are sorted by
// cumulative weight, heaviest first.
func FromProfile(prof *profile.Profile) *Graph {
	g := &Graph{}
	if len(prof.SampleType) == 0 {
		return g
	}
	vi := len(prof.SampleType) - 1
	g.Unit = prof.SampleType[vi].Unit

	// Create nodes
	locations := make(map[uint64][]*Node, len(prof.Location))
	nm := make(NodeMap, len(prof.Function))
	for _, l := range prof.Location {
		lines := l.Line
		if len(lines) == 0 {
			lines = []profile.Line{{}}
		}
		nodes := make([]*Node, len(lines))
		for ln := range lines {
			nodes[ln] = nm.FindOrInsertLine(l, lines[ln])
		}
		locations[l.ID] = nodes
	}
	// Make seen-maps
	seenNode := make(map[*Node]bool)
	seenEdge := make(map[NodePair]bool)

	for _, sample := range prof.Sample {
		if vi >= len(sample.Value) {
			continue
		}
		w := sample.Value[vi]
		if w == 0 {
			continue
		}
		g.Total += w
		for k := range seenNode {
			delete(seenNode, k)
		}
		for k := range seenEdge {
			delete(seenEdge, k)
		}
		var parent *Node
		residual := false

		// walk from the root of the stack to the leaf
		for i := len(sample.Location) - 1; i >= 0; i-- {
			locNodes := locations[sample.Location[i].ID]
			for ni := len(locNodes) - 1; ni >= 0; ni-- {
				n := locNodes[ni]
				if n == nil {
					residual = true
					continue
				}
				if !seenNode[n] {
					seenNode[n] = true
					n.Cum += w
				}
				pair := NodePair{Src: parent, Dest: n}
				if parent != nil && n != parent && !seenEdge[pair] {
					seenEdge[pair] = true
					if e := parent.Out[n]; e != nil {
						e.Weight += w
						if residual {
							e.Residual = true
						}
					} else {
						e := &Edge{Src: parent, Dest: n, Weight: w, Residual: residual}
						parent.Out[n] = e
						n.In[parent] = e
					}
				}
				parent = n
				residual = false
			}
		}
		if parent != nil && !residual {
			parent.Flat += w
		}
	}
	g.Nodes = SelectNodesForGraph(nm.Nodes(), true)
	return g
}

type NodePair struct {
	Src, Dest *Node
}

type Nodes []*Node

func (nm NodeMap) Nodes() Nodes {
	nodes := make(Nodes, 0, len(nm))
	for _, n := range nm {
		nodes = append(nodes, n)
	}
	return nodes
}

// Graph is a call graph. Weights are in Unit; Total is the weight of every
// sample in the profile.
type Graph struct {
	Nodes Nodes
	Unit  string
	Total int64
}

// Top returns the n heaviest nodes by cumulative weight, or all of them when
// n <= 0.
func (g *Graph) Top(n int) Nodes {
	if n <= 0 || n > len(g.Nodes) {
		n = len(g.Nodes)
	}
	return g.Nodes[:n]
}

// Find returns the nodes whose name (or address, when unsymbolized) matches
// re, heaviest first.
func (g *Graph) Find(re *regexp.Regexp) Nodes {
	nodes := make(Nodes, 0)
	for _, n := range g.Nodes {
		if re.MatchString(n.Info.String()) {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Roots returns nodes nobody calls.
func (g *Graph) Roots() Nodes {
	nodes := make(Nodes, 0)
	for _, n := range g.Nodes {
		if len(n.In) == 0 {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Format renders v in the graph's unit, seconds for nanosecond profiles.
func (g *Graph) Format(v int64) string {
	if g.Unit == "nanoseconds" {
		return strconv.FormatFloat(float64(v)/1_000_000_000, 'f', -1, 64) + " s"
	}
	return strconv.FormatInt(v, 10) + " " + g.Unit
}

// Percent is v as a share of the total weight.
func (g *Graph) Percent(v int64) float64 {
	if g.Total == 0 {
		return 0
	}
	return 100 * float64(v) / float64(g.Total)
}

func SelectNodesForGraph(nodes Nodes, dropNegative bool) Nodes {
	gNodes := make(Nodes, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Cum == 0 && n.Flat == 0 {
			continue
		}
		if dropNegative && IsNegative(n) {
			continue
		}
		gNodes = append(gNodes, n)
	}
	sortNodes(gNodes)
	return gNodes
}

func IsNegative(n *Node) bool {
	switch {
	case n.Flat < 0:
		return true
	case n.Flat == 0 && n.Cum < 0:
		return true
	default:
		return false
	}
}

func (nm NodeMap) FindOrInsertLine(loc *profile.Location, line profile.Line) *Node {
	var objfile string
	if m := loc.Mapping; m != nil && m.File != "" {
		objfile = m.File
	}
	if ni := nodeInfo(loc, line, objfile); ni != nil {
		return nm.FindOrInsertNode(*ni)
	}
	return nil
}

func (nm NodeMap) FindOrInsertNode(info NodeInfo) *Node {
	if n, ok := nm[info]; ok {
		return n
	}
	n := &Node{
		Info: info,
		In:   make(map[*Node]*Edge),
		Out:  make(map[*Node]*Edge),
	}
	nm[info] = n
	return n
}

// Node is one function in the graph.
type Node struct {
	Info      NodeInfo
	Flat, Cum int64
	In, Out   map[*Node]*Edge
}

// Callees returns the outgoing edges, heaviest callee first.
func (n *Node) Callees() Edges {
	edges := make(Edges, 0, len(n.Out))
	for _, e := range n.Out {
		edges = append(edges, e)
	}
	sort.Sort(byDestCum(edges))
	return edges
}

// Callers returns the incoming edges, heaviest edge first.
func (n *Node) Callers() Edges {
	edges := make(Edges, 0, len(n.In))
	for _, e := range n.In {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight > edges[j].Weight
		}
		return edges[i].Src.Info.Name < edges[j].Src.Info.Name
	})
	return edges
}

type Edge struct {
	Src, Dest *Node
	Weight    int64
	Residual  bool
}

type Edges []*Edge

type byDestCum Edges

func (e byDestCum) Len() int      { return len(e) }
func (e byDestCum) Swap(i, j int) { e[i], e[j] = e[j], e[i] }
func (e byDestCum) Less(i, j int) bool {
	// largest first
	if e[i].Dest.Cum != e[j].Dest.Cum {
		return e[i].Dest.Cum > e[j].Dest.Cum
	}
	return e[i].Dest.Info.Name < e[j].Dest.Info.Name
}

type NodeInfo struct {
	Name, File, Objfile string
	Address             uint64
	StartLine           int
}

func (i NodeInfo) String() string {
	if i.Name == "" {
		return fmt.Sprintf("%#x", i.Address)
	}
	return i.Name
}

func nodeInfo(l *profile.Location, line profile.Line, objfile string) *NodeInfo {
	if line.Function == nil {
		return &NodeInfo{Address: l.Address, Objfile: objfile}
	}
	ni := &NodeInfo{
		Name:      line.Function.Name,
		StartLine: int(line.Function.StartLine),
	}
	if fname := line.Function.Filename; fname != "" {
		ni.File = filepath.Clean(fname)
	}
	return ni
}

type NodeMap map[NodeInfo]*Node

type nodeSorter struct {
	rs   Nodes
	less func(l, r *Node) bool
}

func (s nodeSorter) Len() int           { return len(s.rs) }
func (s nodeSorter) Swap(i, j int)      { s.rs[i], s.rs[j] = s.rs[j], s.rs[i] }
func (s nodeSorter) Less(i, j int) bool { return s.less(s.rs[i], s.rs[j]) }

func sortNodes(ns Nodes) {
	scoreOrder := func(l, r *Node) bool {
		if iv, jv := abs64(l.Cum), abs64(r.Cum); iv != jv {
			return iv > jv
		}
		if iv, jv := l.Info.Name, r.Info.Name; iv != jv {
			return iv < jv
		}
		if iv, jv := abs64(l.Flat), abs64(r.Flat); iv != jv {
			return iv > jv
		}
		return compareNodes(l, r)
	}
	sort.Sort(nodeSorter{ns, scoreOrder})
}

func compareNodes(l, r *Node) bool {
	return fmt.Sprint(l.Info) < fmt.Sprint(r.Info)
}

func abs64(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}
