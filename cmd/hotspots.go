package cmd

import (
	"fmt"
	"io"
	"regexp"
	"sync"

	"matbench/cmd/util"
	gr "matbench/graph"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var hotspotsCmd = &cobra.Command{
	Use:     "hotspots <cpu.pprof>",
	Aliases: []string{"trav", "hot"},
	Short:   "List or walk the hottest functions of a CPU profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runHotspotsCmd,
}

func init() {
	hotspotsCmd.Flags().IntP("top", "n", 15, "Number of functions to list")
	hotspotsCmd.Flags().StringP("focus", "f", "", "Only keep stacks from the first function matching this regexp down")
	hotspotsCmd.Flags().StringP("match", "m", "", "Also list the functions matching this regexp with their callers")
	hotspotsCmd.Flags().BoolP("interactive", "i", false, "Walk the call graph with menus")
	RootCmd.AddCommand(hotspotsCmd)
}

func runHotspotsCmd(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	focus, _ := cmd.Flags().GetString("focus")
	match, _ := cmd.Flags().GetString("match")
	interactive, _ := cmd.Flags().GetBool("interactive")
	var matchRe *regexp.Regexp
	if match != "" {
		var err error
		if matchRe, err = regexp.Compile(match); err != nil {
			return fmt.Errorf("--match: %w", err)
		}
	}

	graph, err := util.GetGraphFromFile(args[0], focus)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(graph.Nodes) == 0 {
		fmt.Fprintln(out, "Profile holds no samples")
		return nil
	}
	printHotspots(out, graph, graph.Top(top))
	if matchRe != nil {
		printMatches(out, graph, matchRe)
	}
	if interactive {
		return traverse(out, graph)
	}
	return nil
}

func printHotspots(out io.Writer, g *gr.Graph, nodes gr.Nodes) {
	fmt.Fprintf(out, "Showing %d of %d functions, total %s\n", len(nodes), len(g.Nodes), g.Format(g.Total))
	fmt.Fprintf(out, "%14s %7s %14s %7s  %s\n", "flat", "flat%", "cum", "cum%", "function")
	for _, n := range nodes {
		fmt.Fprintf(out, "%14s %6.2f%% %14s %6.2f%%  %s\n",
			g.Format(n.Flat), g.Percent(n.Flat), g.Format(n.Cum), g.Percent(n.Cum), n.Info)
	}
}

// printMatches lists every node matching re and who calls it, heaviest
// caller first.
func printMatches(out io.Writer, g *gr.Graph, re *regexp.Regexp) {
	nodes := g.Find(re)
	fmt.Fprintf(out, "%d function(s) match %q\n", len(nodes), re.String())
	for _, n := range nodes {
		fmt.Fprintf(out, "%s: cum %s (%.2f%%)\n", n.Info, g.Format(n.Cum), g.Percent(n.Cum))
		callers := n.Callers()
		if len(callers) == 0 {
			fmt.Fprintln(out, "    no callers")
		}
		for _, e := range callers {
			fmt.Fprintf(out, "    <- %s %s\n", e.Src.Info, g.Format(e.Weight))
		}
	}
}

// Stack from https://stackoverflow.com/a/28542256
type Stack struct {
	lock sync.Mutex
	s    []*gr.Node
}

func NewStack() *Stack {
	return &Stack{sync.Mutex{}, make([]*gr.Node, 0)}
}

func (s *Stack) Push(v *gr.Node) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.s = append(s.s, v)
}

func (s *Stack) Pop() *gr.Node {
	s.lock.Lock()
	defer s.lock.Unlock()

	l := len(s.s)
	if l == 0 {
		return nil
	}

	res := s.s[l-1]
	s.s = s.s[:l-1]
	return res
}

func (s *Stack) Peek() *gr.Node {
	s.lock.Lock()
	defer s.lock.Unlock()

	l := len(s.s)
	if l == 0 {
		return nil
	}

	return s.s[l-1]
}

func (s *Stack) HasNode() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.s) != 0
}

// traverse walks the graph from its heaviest root, one menu per step.
func traverse(out io.Writer, graph *gr.Graph) error {
	currentNode := graph.Nodes[0]
	if roots := graph.Roots(); len(roots) > 0 {
		currentNode = roots[0]
	}
	parents := NewStack()
	for {
		fmt.Fprintf(out, "Currently looking at: %s : cum %s, flat %s\n",
			currentNode.Info, graph.Format(currentNode.Cum), graph.Format(currentNode.Flat))
		items := moveItems(currentNode, parents)
		movePrompt := promptui.Select{
			Label: "Where do you want to move?",
			Items: items,
		}
		_, selectedMove, err := movePrompt.Run()
		if err != nil {
			return fmt.Errorf("getting move: %w", err)
		}
		switch selectedMove {
		case "Quit":
			return nil
		case "To Parent":
			if parents.HasNode() {
				currentNode = parents.Pop()
			}
		case "To Child":
			currentNode = fetchChild(graph, currentNode, parents)
		case "To Sibling":
			if par := parents.Peek(); par != nil {
				if next := fetchChild(graph, par, parents); next != par {
					currentNode = next
				}
			}
		}
	}
}

// moveItems lists the moves available from node.
func moveItems(node *gr.Node, parents *Stack) []string {
	items := make([]string, 0, 4)
	if len(node.Out) > 0 {
		items = append(items, "To Child")
	}
	if parents.HasNode() {
		items = append(items, "To Parent", "To Sibling")
	}
	return append(items, "Quit")
}

func fetchChild(graph *gr.Graph, currentNode *gr.Node, parents *Stack) *gr.Node {
	edges, items := childItems(graph, currentNode)
	childPrompt := promptui.Select{
		Label: "Choose a node",
		Items: append(items, "Cancel"),
	}
	i, selectedChild, err := childPrompt.Run()
	if err != nil || selectedChild == "Cancel" {
		return currentNode
	}
	if parents.Peek() != currentNode {
		parents.Push(currentNode)
	}
	return edges[i].Dest
}

// childItems returns the callees of node, heaviest first, and their menu labels.
func childItems(graph *gr.Graph, node *gr.Node) (gr.Edges, []string) {
	edges := node.Callees()
	values := make([]string, 0, len(edges))
	for _, edge := range edges {
		values = append(values, fmt.Sprintf("%s: %s", edge.Dest.Info, graph.Format(edge.Dest.Cum)))
	}
	return edges, values
}
