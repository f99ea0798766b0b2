/*
Package json serializes trees to and from the wire shape used by
the statistics backend: a recursive JSON object per node with a
"type" discriminant of "split" or "leaf".
*/
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/local-minima-lab/arbor/tree"
)

type wireNode struct {
	Type      string          `json:"type"`
	Samples   int             `json:"samples"`
	Impurity  float64         `json:"impurity"`
	Value     [][]float64     `json:"value"`
	Feature   string          `json:"feature,omitempty"`
	Threshold *float64        `json:"threshold,omitempty"`
	Terminal  bool            `json:"terminal,omitempty"`
	Mask      []int           `json:"samples_mask,omitempty"`
	Histogram *tree.Histogram `json:"histogram_data,omitempty"`
	Left      *wireNode       `json:"left,omitempty"`
	Right     *wireNode       `json:"right,omitempty"`
}

/*
MarshalNode serializes the subtree rooted at n into its wire JSON
representation. An error is returned if the tree holds a node that
is neither a leaf nor a split.
*/
func MarshalNode(n tree.Node) ([]byte, error) {
	w, err := toWire(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

/*
UnmarshalNode parses a wire JSON node and returns the tree rooted
at it. An error is returned for unknown node types or for split
nodes missing either child.
*/
func UnmarshalNode(data []byte) (tree.Node, error) {
	w := &wireNode{}
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("parsing tree node: %v", err)
	}
	return fromWire(w)
}

/*
WriteTree serializes the subtree rooted at n as JSON onto the
given io.Writer.
*/
func WriteTree(w io.Writer, n tree.Node) error {
	wn, err := toWire(n)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wn)
}

/*
ReadTree parses a JSON tree from the given io.Reader and returns
its root node.
*/
func ReadTree(r io.Reader) (tree.Node, error) {
	w := &wireNode{}
	if err := json.NewDecoder(r).Decode(w); err != nil {
		return nil, fmt.Errorf("parsing tree: %v", err)
	}
	return fromWire(w)
}

func toWire(n tree.Node) (*wireNode, error) {
	if n == nil {
		return nil, fmt.Errorf("encoding tree: nil node")
	}
	st := n.NodeStats()
	w := &wireNode{
		Samples:   st.Samples,
		Impurity:  st.Impurity,
		Value:     st.Value,
		Mask:      st.Mask,
		Histogram: st.Histogram,
	}
	switch v := n.(type) {
	case *tree.Leaf:
		w.Type = "leaf"
		w.Terminal = v.Terminal
	case *tree.Split:
		w.Type = "split"
		w.Feature = v.Feature
		t := v.Threshold
		w.Threshold = &t
		var err error
		w.Left, err = toWire(v.Left)
		if err != nil {
			return nil, err
		}
		w.Right, err = toWire(v.Right)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("encoding tree: unknown node type %T", n)
	}
	return w, nil
}

func fromWire(w *wireNode) (tree.Node, error) {
	st := tree.Stats{
		Samples:   w.Samples,
		Impurity:  w.Impurity,
		Value:     w.Value,
		Mask:      w.Mask,
		Histogram: w.Histogram,
	}
	switch w.Type {
	case "leaf":
		return &tree.Leaf{Stats: st, Terminal: w.Terminal}, nil
	case "split":
		if w.Left == nil || w.Right == nil {
			return nil, fmt.Errorf("parsing tree: split node %q missing a child", w.Feature)
		}
		left, err := fromWire(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := fromWire(w.Right)
		if err != nil {
			return nil, err
		}
		var threshold float64
		if w.Threshold != nil {
			threshold = *w.Threshold
		}
		return &tree.Split{
			Stats:     st,
			Feature:   w.Feature,
			Threshold: threshold,
			Left:      left,
			Right:     right,
		}, nil
	default:
		return nil, fmt.Errorf("parsing tree: unknown node type %q", w.Type)
	}
}
