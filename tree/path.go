package tree

import (
	"fmt"
	"strings"
)

/*
Direction selects a child of a Split: GoLeft for the left child,
GoRight for the right one.
*/
type Direction uint8

const (
	// GoLeft selects the left child of a split.
	GoLeft Direction = iota
	// GoRight selects the right child of a split.
	GoRight
)

/*
Path addresses a node in a tree as the sequence of directions
taken from the root. The empty path addresses the root itself.
Paths address nodes uniquely: two different paths never reach the
same node.
*/
type Path []Direction

/*
ParsePath parses a textual path into a Path. It accepts '0', 'l'
and 'L' for a left step and '1', 'r' and 'R' for a right step;
separators '.', ',', '/' and spaces are ignored. The empty string
parses to the empty path (the root). An error is returned for any
other character.
*/
func ParsePath(s string) (Path, error) {
	var p Path
	for _, c := range s {
		switch c {
		case '0', 'l', 'L':
			p = append(p, GoLeft)
		case '1', 'r', 'R':
			p = append(p, GoRight)
		case '.', ',', '/', ' ':
		default:
			return nil, fmt.Errorf("parsing path %q: unexpected character %q", s, c)
		}
	}
	return p, nil
}

func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	var b strings.Builder
	for _, d := range p {
		if d == GoLeft {
			b.WriteByte('L')
		} else {
			b.WriteByte('R')
		}
	}
	return b.String()
}

/*
Clone returns an independent copy of the path.
*/
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

/*
Equal reports whether two paths address the same node.
*/
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

/*
HasPrefix reports whether q is a prefix of p, that is, whether the
node addressed by q is an ancestor of (or the same node as) the
one addressed by p.
*/
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	return p[:len(q)].Equal(q)
}

/*
At walks the given path from root and returns the addressed node.
The empty path returns the root. The boolean result is false when
the path walks past a leaf, steps into a missing child or the root
is nil; the node result is nil in that case.
*/
func At(root Node, p Path) (Node, bool) {
	n := root
	for _, d := range p {
		s, ok := n.(*Split)
		if !ok {
			return nil, false
		}
		if d == GoLeft {
			n = s.Left
		} else {
			n = s.Right
		}
	}
	if n == nil {
		return nil, false
	}
	return n, true
}

/*
ReplaceAt returns a new tree in which the node addressed by the
given path is replaced with n. The original tree is never
mutated: every ancestor along the path is a fresh node, while
untouched sibling subtrees are shared between the old and the new
tree. The empty path replaces the root.

A path that walks past a leaf is silently truncated: the
replacement applies at the deepest node the path reaches. Callers
must treat a truncated replacement as a no-op at the intended
address, not as an error.
*/
func ReplaceAt(root Node, p Path, n Node) Node {
	return RewriteAt(root, p, func(Node) Node { return n })
}

/*
RewriteAt returns a new tree in which the node addressed by the
given path is replaced with the result of applying fn to it. The
rebuild is copy-on-path: ancestors along the path are fresh nodes
and untouched siblings are shared. The empty path rewrites the
root.

Like ReplaceAt, a path that walks past a leaf applies fn at the
deepest node reached instead of failing.
*/
func RewriteAt(root Node, p Path, fn func(Node) Node) Node {
	if len(p) == 0 {
		return fn(root)
	}
	s, ok := root.(*Split)
	if !ok {
		// Addressing past a leaf: rewrite the deepest reachable node.
		return fn(root)
	}
	dup := *s
	if p[0] == GoLeft {
		dup.Left = RewriteAt(s.Left, p[1:], fn)
	} else {
		dup.Right = RewriteAt(s.Right, p[1:], fn)
	}
	return &dup
}
