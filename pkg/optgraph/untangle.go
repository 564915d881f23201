package optgraph

import (
	"math"

	"github.com/pvnkmrksk/magga/pkg/geo"
)

// Untangle applies the six topology rewrites until none of them fires
// anymore. Returns whether anything changed. The line continuation relation
// is preserved by every rewrite, only the topology is rewritten.
func (og *OptGraph) Untangle() bool {
	changed := false
	for {
		if og.untangleFullCrossStep() {
			changed = true
			continue
		}
		if og.untangleYStep() {
			changed = true
			continue
		}
		if og.untanglePartialYStep() {
			changed = true
			continue
		}
		if og.untangleDogBoneStep() {
			changed = true
			continue
		}
		if og.untanglePartialDogBoneStep() {
			changed = true
			continue
		}
		if og.untangleStumpStep() {
			changed = true
			continue
		}
		break
	}
	return changed
}

// continuationBranches lists the edges at n that lo continues into.
func continuationBranches(lo OptLO, e *OptEdge, n *OptNode) []*OptEdge {
	out := []*OptEdge{}
	for _, b := range n.Adj {
		if b == e {
			continue
		}
		if dirContinuedOver(lo, e, b, n) {
			out = append(out, b)
		}
	}
	return out
}

// lineBlock is a contiguous slice of an edge's line list that continues into
// one common branch.
type lineBlock struct {
	branch *OptEdge
	start  int
	end    int // exclusive
}

// branchBlocks partitions e.Lines by their unique continuation branch at n.
// Returns nil unless every line continues into exactly one branch, every
// branch at n receives at least one line, and every group is a contiguous
// block of e.Lines.
func branchBlocks(e *OptEdge, n *OptNode) []lineBlock {
	if len(e.Lines) == 0 || n.Deg() < 3 {
		return nil
	}

	branchOf := make([]*OptEdge, len(e.Lines))
	for i, lo := range e.Lines {
		bs := continuationBranches(lo, e, n)
		if len(bs) != 1 {
			return nil
		}
		branchOf[i] = bs[0]
	}

	blocks := []lineBlock{}
	seen := make(map[*OptEdge]bool)
	i := 0
	for i < len(e.Lines) {
		b := branchOf[i]
		if seen[b] {
			// branch appears in two separate blocks
			return nil
		}
		seen[b] = true
		j := i
		for j < len(e.Lines) && branchOf[j] == b {
			j++
		}
		blocks = append(blocks, lineBlock{branch: b, start: i, end: j})
		i = j
	}

	if len(blocks) < 2 || len(blocks) != n.Deg()-1 {
		return nil
	}
	return blocks
}

// explodeNodeAlong replaces nd by k nodes spread perpendicular to the
// tangent towards anchor, keeping their relative order stable.
func (og *OptGraph) explodeNodeAlong(nd *OptNode, anchor geo.Point, k int) []*OptNode {
	dir := anchor.Sub(nd.Pos)
	norm := dir.Norm()
	if norm == 0 {
		norm = 1
		dir = geo.NewPoint(1, 0)
	}
	perp := geo.NewPoint(-dir.Y/norm, dir.X/norm)
	step := math.Max(norm*0.05, 1e-3)

	out := make([]*OptNode, k)
	for i := 0; i < k; i++ {
		off := (float64(i) - float64(k-1)/2) * step
		out[i] = &OptNode{
			Pos: nd.Pos.Add(perp.Mul(off)),
		}
		og.addNd(out[i])
	}
	return out
}

// viewOf clones e restricted to the block [start, end) of its line list.
func viewOf(e *OptEdge, start, end int) *OptEdge {
	parts := make([]EtgPart, len(e.Etgs))
	copy(parts, e.Etgs)
	for i := range parts {
		parts[i].WasCut = true
	}
	lines := make([]OptLO, end-start)
	copy(lines, e.Lines[start:end])
	return &OptEdge{
		Etgs:       parts,
		Lines:      lines,
		ViewOffset: e.ViewOffset + start,
		Depth:      e.Depth + 1,
	}
}

// untangleYStep clones a trunk whose lines partition cleanly onto the
// branches of one endpoint into one parallel trunk per branch.
func (og *OptGraph) untangleYStep() bool {
	for _, e := range og.Edgs() {
		for _, n := range []*OptNode{e.From, e.To} {
			blocks := branchBlocks(e, n)
			if blocks == nil {
				continue
			}

			m := e.OtherNd(n)
			parts := og.explodeNodeAlong(n, m.Pos, len(blocks))

			for i, blk := range blocks {
				ni := parts[i]
				replaceEndpoint(blk.branch, n, ni)

				ei := viewOf(e, blk.start, blk.end)
				if e.From == m {
					ei.From, ei.To = m, ni
				} else {
					ei.From, ei.To = ni, m
				}
				m.Adj = append(m.Adj, ei)
				ni.Adj = append(ni.Adj, ei)
			}

			detachEdg(m, e)
			detachEdg(n, e)
			og.delNd(n)
			return true
		}
	}
	return false
}

// untanglePartialYStep splits off the separable portion of a trunk: a block
// at either end of the line list whose lines continue into exactly one
// branch that carries nothing else.
func (og *OptGraph) untanglePartialYStep() bool {
	for _, e := range og.Edgs() {
		for _, n := range []*OptNode{e.From, e.To} {
			if n.Deg() < 3 {
				continue
			}
			blk, ok := separableEndBlock(e, n)
			if !ok {
				continue
			}

			m := e.OtherNd(n)
			parts := og.explodeNodeAlong(n, m.Pos, 2)
			n1, n2 := parts[0], parts[1]

			// the separable branch moves to its own node
			replaceEndpoint(blk.branch, n, n1)
			for _, rest := range append([]*OptEdge{}, n.Adj...) {
				if rest == e {
					continue
				}
				replaceEndpoint(rest, n, n2)
			}

			eSep := viewOf(e, blk.start, blk.end)
			var eRest *OptEdge
			if blk.start == 0 {
				eRest = viewOf(e, blk.end, len(e.Lines))
			} else {
				eRest = viewOf(e, 0, blk.start)
			}

			attach := func(x *OptEdge, end *OptNode) {
				if e.From == m {
					x.From, x.To = m, end
				} else {
					x.From, x.To = end, m
				}
				m.Adj = append(m.Adj, x)
				end.Adj = append(end.Adj, x)
			}
			attach(eSep, n1)
			attach(eRest, n2)

			detachEdg(m, e)
			detachEdg(n, e)
			og.delNd(n)
			return true
		}
	}
	return false
}

// separableEndBlock finds a contiguous block at either end of e.Lines whose
// lines continue into exactly one common branch at n, and that branch's own
// lines are exactly this block's continuations.
func separableEndBlock(e *OptEdge, n *OptNode) (lineBlock, bool) {
	if len(e.Lines) < 2 {
		return lineBlock{}, false
	}

	try := func(start, end int) (lineBlock, bool) {
		var branch *OptEdge
		for i := start; i < end; i++ {
			bs := continuationBranches(e.Lines[i], e, n)
			if len(bs) != 1 {
				return lineBlock{}, false
			}
			if branch == nil {
				branch = bs[0]
			} else if branch != bs[0] {
				return lineBlock{}, false
			}
		}
		// the branch carries exactly these lines
		if branch == nil || branch.Cardinality() != end-start {
			return lineBlock{}, false
		}
		for _, lo := range branch.Lines {
			if !dirContinuedOver(lo, branch, e, n) {
				return lineBlock{}, false
			}
		}
		// the rest must not continue into the separable branch
		for i := 0; i < len(e.Lines); i++ {
			if i >= start && i < end {
				continue
			}
			for _, b := range continuationBranches(e.Lines[i], e, n) {
				if b == branch {
					return lineBlock{}, false
				}
			}
		}
		return lineBlock{branch: branch, start: start, end: end}, true
	}

	// grow a prefix, then a suffix block
	for end := 1; end < len(e.Lines); end++ {
		if blk, ok := try(0, end); ok {
			return blk, true
		}
	}
	for start := len(e.Lines) - 1; start > 0; start-- {
		if blk, ok := try(start, len(e.Lines)); ok {
			return blk, true
		}
	}
	return lineBlock{}, false
}

// untangleDogBoneStep duplicates an edge between two junctions whose lines
// split disjointly at both ends into parallel bones.
func (og *OptGraph) untangleDogBoneStep() bool {
	for _, e := range og.Edgs() {
		u, v := e.From, e.To
		if u.Deg() < 3 || v.Deg() < 3 {
			continue
		}
		ub := branchBlocks(e, u)
		if ub == nil {
			continue
		}
		vb := branchBlocks(e, v)
		if vb == nil {
			continue
		}

		// the two partitions must agree: every u-block maps onto exactly one
		// v-branch
		vBranchOf := func(start, end int) *OptEdge {
			var b *OptEdge
			for _, blk := range vb {
				if blk.start <= start && end <= blk.end {
					b = blk.branch
				}
			}
			return b
		}
		ok := true
		seenV := make(map[*OptEdge]bool)
		for _, blk := range ub {
			b := vBranchOf(blk.start, blk.end)
			if b == nil || seenV[b] {
				ok = false
				break
			}
			seenV[b] = true
		}
		if !ok || len(ub) != len(vb) {
			continue
		}

		uParts := og.explodeNodeAlong(u, v.Pos, len(ub))
		vParts := og.explodeNodeAlong(v, u.Pos, len(ub))

		for i, blk := range ub {
			ui := uParts[i]
			vi := vParts[i]
			replaceEndpoint(blk.branch, u, ui)
			replaceEndpoint(vBranchOfBlock(vb, blk), v, vi)

			bone := viewOf(e, blk.start, blk.end)
			bone.From, bone.To = ui, vi
			ui.Adj = append(ui.Adj, bone)
			vi.Adj = append(vi.Adj, bone)
		}

		detachEdg(u, e)
		detachEdg(v, e)
		og.delNd(u)
		og.delNd(v)
		return true
	}
	return false
}

func vBranchOfBlock(vb []lineBlock, ub lineBlock) *OptEdge {
	for _, blk := range vb {
		if blk.start <= ub.start && ub.end <= blk.end {
			return blk.branch
		}
	}
	return nil
}

// untanglePartialDogBoneStep splits one clean end block off a bone whose
// other end does not split cleanly.
func (og *OptGraph) untanglePartialDogBoneStep() bool {
	for _, e := range og.Edgs() {
		for _, u := range []*OptNode{e.From, e.To} {
			v := e.OtherNd(u)
			if u.Deg() < 3 || v.Deg() < 3 {
				continue
			}
			// a full dog bone is handled by the full rewrite
			if branchBlocks(e, u) != nil && branchBlocks(e, v) != nil {
				continue
			}
			blk, ok := separableEndBlock(e, u)
			if !ok {
				continue
			}

			parts := og.explodeNodeAlong(u, v.Pos, 2)
			u1, u2 := parts[0], parts[1]

			replaceEndpoint(blk.branch, u, u1)
			for _, rest := range append([]*OptEdge{}, u.Adj...) {
				if rest == e {
					continue
				}
				replaceEndpoint(rest, u, u2)
			}

			eSep := viewOf(e, blk.start, blk.end)
			var eRest *OptEdge
			if blk.start == 0 {
				eRest = viewOf(e, blk.end, len(e.Lines))
			} else {
				eRest = viewOf(e, 0, blk.start)
			}

			attach := func(x *OptEdge, end *OptNode) {
				if e.From == u {
					x.From, x.To = end, v
				} else {
					x.From, x.To = v, end
				}
				v.Adj = append(v.Adj, x)
				end.Adj = append(end.Adj, x)
			}
			attach(eSep, u1)
			attach(eRest, u2)

			detachEdg(u, e)
			detachEdg(v, e)
			og.delNd(u)
			return true
		}
	}
	return false
}

// untangleFullCrossStep explodes a degree-2 node where the bundle's two
// halves swap sides: the crossing is frozen into the topology so the
// ordering optimizer does not have to pay for it.
func (og *OptGraph) untangleFullCrossStep() bool {
	for _, n := range og.Nds {
		if n.Deg() != 2 {
			continue
		}
		a, b := n.Adj[0], n.Adj[1]
		if a == b || !dirLineEqualIn(a, b, n) {
			continue
		}

		in := linesToward(a, n)
		out := linesAway(b, n)

		k, ok := blockSwapSplit(in, out)
		if !ok {
			continue
		}

		// explode n into two nodes along the local tangent
		parts := og.explodeNodeAlong(n, a.OtherNd(n).Pos, 2)
		n1, n2 := parts[0], parts[1]

		// a's prefix half pairs with b's suffix half and vice versa
		aIn := toStoredBlock(a, n, 0, k, true)
		aOut := toStoredBlock(a, n, k, len(in), true)
		bIn := toStoredBlock(b, n, len(in)-k, len(in), false)
		bOut := toStoredBlock(b, n, 0, len(in)-k, false)

		connect := func(x *OptEdge, far, near *OptNode, blk [2]int) *OptEdge {
			e := viewOf(x, blk[0], blk[1])
			if x.From == far {
				e.From, e.To = far, near
			} else {
				e.From, e.To = near, far
			}
			far.Adj = append(far.Adj, e)
			near.Adj = append(near.Adj, e)
			return e
		}

		fa := a.OtherNd(n)
		fb := b.OtherNd(n)
		connect(a, fa, n1, aIn)
		connect(a, fa, n2, aOut)
		connect(b, fb, n1, bIn)
		connect(b, fb, n2, bOut)

		detachEdg(fa, a)
		detachEdg(fb, b)
		detachEdg(n, a)
		detachEdg(n, b)
		og.delNd(n)
		return true
	}
	return false
}

// blockSwapSplit finds k so that out equals in with its two halves swapped.
func blockSwapSplit(in, out []OptLO) (int, bool) {
	n := len(in)
	for k := 1; k < n; k++ {
		match := true
		for i := 0; i < n; i++ {
			var want OptLO
			if i < n-k {
				want = in[k+i]
			} else {
				want = in[i-(n-k)]
			}
			if out[i].Line != want.Line {
				match = false
				break
			}
		}
		if match {
			return k, true
		}
	}
	return 0, false
}

// toStoredBlock maps a block of the node-oriented line order back to stored
// index space of the edge.
func toStoredBlock(e *OptEdge, n *OptNode, start, end int, toward bool) [2]int {
	reversed := (toward && e.To != n) || (!toward && e.From != n)
	if !reversed {
		return [2]int{start, end}
	}
	l := len(e.Lines)
	return [2]int{l - end, l - start}
}

// untangleStumpStep contracts a single-line dead end stub into its parent
// node. Only stubs whose line rides no other edge of the junction are
// removable, anything else still participates in crossing counts there.
func (og *OptGraph) untangleStumpStep() bool {
	for _, e := range og.Edgs() {
		if e.Cardinality() != 1 {
			continue
		}
		cut := false
		for _, p := range e.Etgs {
			if p.WasCut {
				cut = true
			}
		}
		if cut {
			continue
		}

		var t, n *OptNode
		if e.From.Deg() == 1 && e.To.Deg() >= 2 {
			t, n = e.From, e.To
		} else if e.To.Deg() == 1 && e.From.Deg() >= 2 {
			t, n = e.To, e.From
		} else {
			continue
		}

		l := e.Lines[0].Line
		shared := false
		for _, o := range n.Adj {
			if o != e && o.HasLine(l) {
				shared = true
				break
			}
		}
		if shared {
			continue
		}

		detachEdg(t, e)
		detachEdg(n, e)
		og.delNd(t)
		return true
	}
	return false
}
