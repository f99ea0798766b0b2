package tree

import (
	"fmt"
	"strings"
)

/*
Instruction is a traversal instruction as served by the prediction
backend: a step towards the left or right child, or a stop at the
current node.
*/
type Instruction string

const (
	// StepLeft instructs the traversal to descend into the left child.
	StepLeft = Instruction("left")
	// StepRight instructs the traversal to descend into the right child.
	StepRight = Instruction("right")
	// Stop ends the traversal at the current node.
	Stop = Instruction("stop")
)

/*
PredictionPath walks the tree from root comparing the query point
against each split: a feature value less than or equal to the
split threshold descends left, a greater value descends right. The
returned path addresses the node where the walk ended.

The walk stops early, without error, when a split tests a feature
the query point has no value for. The resulting path is then
shorter than the tree depth and addresses the split where the
value was missing. The walk is deterministic: the same tree and
point always yield the same path.
*/
func PredictionPath(root Node, point map[string]float64) Path {
	var path Path
	n := root
	for {
		s, ok := n.(*Split)
		if !ok {
			return path
		}
		v, ok := point[s.Feature]
		if !ok {
			// Missing feature value: the path ends here by design.
			return path
		}
		if v <= s.Threshold {
			path = append(path, GoLeft)
			n = s.Left
		} else {
			path = append(path, GoRight)
			n = s.Right
		}
	}
}

/*
FollowInstructions converts backend traversal instructions into a
Path over the given tree. The walk ends at the first Stop
instruction, at the first instruction that cannot be applied
(stepping from a leaf), or when the instructions run out. Unknown
instructions end the walk as well; they are degradation, not
errors.
*/
func FollowInstructions(root Node, instructions []Instruction) Path {
	var path Path
	n := root
	for _, in := range instructions {
		s, ok := n.(*Split)
		if !ok {
			return path
		}
		switch in {
		case StepLeft:
			path = append(path, GoLeft)
			n = s.Left
		case StepRight:
			path = append(path, GoRight)
			n = s.Right
		default:
			return path
		}
	}
	return path
}

/*
Predict walks the tree for the given query point and returns the
index of the most probable class at the reached node, the
probability of that class, and the path walked. When the walk
stops early at a split because of a missing feature value, the
prediction is made from that split's own class distribution.
*/
func Predict(root Node, point map[string]float64) (class int, confidence float64, path Path) {
	path = PredictionPath(root, point)
	n, ok := At(root, path)
	if !ok {
		return -1, 0, path
	}
	class, confidence = PredictedClass(n)
	return class, confidence, path
}

/*
Walk traverses the subtree rooted at n top-down, calling fn with
every node and the path addressing it. The walk visits a parent
before its children and the left child before the right one.
*/
func Walk(n Node, fn func(Path, Node)) {
	walk(n, nil, fn)
}

func walk(n Node, p Path, fn func(Path, Node)) {
	if n == nil {
		return
	}
	fn(p.Clone(), n)
	if s, ok := n.(*Split); ok {
		walk(s.Left, append(p, GoLeft), fn)
		walk(s.Right, append(p, GoRight), fn)
	}
}

/*
Sprint renders the subtree rooted at n as an indented ASCII tree,
one node per line. Splits are rendered with their feature and
threshold, leaves with their majority class (by name when
classNames is given, by index otherwise) and sample count.
*/
func Sprint(n Node, classNames []string) string {
	var b strings.Builder
	sprint(&b, n, classNames, "", "")
	return b.String()
}

func sprint(b *strings.Builder, n Node, classNames []string, prefix, childPrefix string) {
	if n == nil {
		return
	}
	b.WriteString(prefix)
	switch v := n.(type) {
	case *Split:
		fmt.Fprintf(b, "[%s <= %.4g] samples=%d impurity=%.3f\n", v.Feature, v.Threshold, v.Samples, v.Impurity)
		sprint(b, v.Left, classNames, childPrefix+"|__", childPrefix+"|  ")
		sprint(b, v.Right, classNames, childPrefix+"|__", childPrefix+"   ")
	case *Leaf:
		idx, _ := PredictedClass(v)
		label := fmt.Sprintf("class %d", idx)
		if idx >= 0 && idx < len(classNames) {
			label = classNames[idx]
		}
		if v.Terminal {
			fmt.Fprintf(b, "{ %s } samples=%d (terminal)\n", label, v.Samples)
		} else {
			fmt.Fprintf(b, "{ %s } samples=%d\n", label, v.Samples)
		}
	}
}
