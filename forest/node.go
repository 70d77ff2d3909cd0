// Package forest implements the §4.5 disambiguator and tree builder: it
// reads a finished bsr.Set as a binary-branching grammar over spans,
// resolves ordered-choice and longest-match ambiguity, and materializes a
// CST (one node per kept BSR span) or an AST (CST with single-child
// non-terminal chains collapsed and purely-syntactic terminals elided).
package forest

import (
	"fmt"
	"io"
)

// Node is the shared CST/AST tree shape, mirroring the teacher's
// driver.Node{KindName, Text, Row, Col, Children} with a byte-offset Span
// in place of Row/Col (the engine is position-addressed throughout, not
// cursor-addressed) and an Ambiguous marker.
type Node struct {
	KindName  string
	Text      string
	Span      [2]int
	Ambiguous bool
	Terminal  bool // true for a terminal leaf, false for a non-terminal
	Children  []*Node

	// elide marks a node built from a Symbol whose Elide bit is set
	// (purely-syntactic punctuation); AST() drops these, CST() keeps them.
	elide bool
}

// PrintTree renders a tree in the teacher's box-drawing format.
func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine, childPrefix string) {
	if node == nil {
		return
	}
	marker := ""
	if node.Ambiguous {
		marker = " (ambiguous)"
	}
	if node.Terminal {
		fmt.Fprintf(w, "%v%v %#v%v\n", ruledLine, node.KindName, node.Text, marker)
	} else {
		fmt.Fprintf(w, "%v%v%v\n", ruledLine, node.KindName, marker)
	}

	n := len(node.Children)
	for i, child := range node.Children {
		line, prefix := "├─ ", "│  "
		if i == n-1 {
			line, prefix = "└─ ", "   "
		}
		printTree(w, child, childPrefix+line, childPrefix+prefix)
	}
}
