package optgraph

// Simplify contracts one degree-2 node whose two incident edges carry the
// same directed line set in the same transversal order. Returns whether a
// contraction happened; callers loop to fixpoint. Nodes whose bundles swap
// sides are left for the full cross untangle.
func (og *OptGraph) Simplify() bool {
	for _, n := range og.Nds {
		if n.Deg() != 2 {
			continue
		}
		a, b := n.Adj[0], n.Adj[1]
		if a == b {
			continue
		}
		if !dirLineEqualIn(a, b, n) {
			continue
		}
		if !orderPreservedOver(a, b, n) {
			continue
		}

		og.contract(n, a, b)
		return true
	}
	return false
}

// orderPreservedOver reports whether the transversal order of the bundle is
// identical walking from a through n into b.
func orderPreservedOver(a, b *OptEdge, n *OptNode) bool {
	in := linesToward(a, n)
	out := linesAway(b, n)
	for i := range in {
		if in[i].Line != out[i].Line {
			return false
		}
	}
	return true
}

// contract replaces a - n - b by a single edge from a's far node to b's far
// node. Etg lists concatenate, the direction bit flips where the joined
// orientation differs.
func (og *OptGraph) contract(n *OptNode, a, b *OptEdge) {
	x := a.OtherNd(n)
	y := b.OtherNd(n)

	parts := []EtgPart{}
	parts = append(parts, orientParts(a, x)...)
	parts = append(parts, orientParts(b, n)...)
	for i := range parts {
		parts[i].Order = i
	}

	lines := make([]OptLO, 0, len(a.Lines))
	for _, lo := range linesAway(a, x) {
		nd := remapDir(lo, a, b, x, y, n)
		lines = append(lines, OptLO{Line: lo.Line, Dir: nd})
	}

	merged := &OptEdge{
		From:       x,
		To:         y,
		Etgs:       parts,
		Lines:      lines,
		ViewOffset: a.ViewOffset,
		Depth:      maxInt(a.Depth, b.Depth),
	}

	detachEdg(x, a)
	detachEdg(y, b)
	x.Adj = append(x.Adj, merged)
	y.Adj = append(y.Adj, merged)
	og.delNd(n)
}

// orientParts returns e's etg parts ordered and oriented walking away from
// the given endpoint.
func orientParts(e *OptEdge, from *OptNode) []EtgPart {
	parts := make([]EtgPart, len(e.Etgs))
	copy(parts, e.Etgs)
	if e.From == from {
		return parts
	}
	out := make([]EtgPart, len(parts))
	for i, p := range parts {
		p.Dir = !p.Dir
		out[len(parts)-1-i] = p
	}
	return out
}

// remapDir resolves the direction anchor of a merged occurrence: anchors at
// the contracted node move to the continuation's anchor on the far side.
func remapDir(lo OptLO, a, b *OptEdge, x, y, n *OptNode) *OptNode {
	if lo.Dir == x {
		return x
	}
	if lo.Dir == n || lo.Dir == nil {
		if lob, ok := b.lo(lo.Line); ok {
			if lob.Dir == y {
				return y
			}
			if lob.Dir == nil && lo.Dir == nil {
				return nil
			}
			if lo.Dir == n {
				return y
			}
		}
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
