// Package bvh is a static bounding volume hierarchy over axis-aligned boxes.
// Records carry a copied entity id as a weak back-reference: the tree owns
// nothing and is meant to be thrown away and rebuilt, not updated.
package bvh

import (
	"slices"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/geom"
)

const (
	DefaultLeafSize = 4
	sahBins         = 12
)

// Item is one indexed record.
type Item struct {
	Bounds geom.AABB
	Entity ecs.EntityID
}

// Candidate is a broad-phase ray hit: the ray enters Item.Bounds at T.
type Candidate struct {
	Item Item
	T    float32
}

// node is stored depth-first: an inner node's left child follows it
// directly, its right child is at right. Leaves have count > 0 and cover
// items[start:start+count].
type node struct {
	bounds geom.AABB
	start  int32
	count  int32
	right  int32
}

// BVH is built once from inserted items. Queries on a tree that has not been
// built return nothing.
type BVH struct {
	items    []Item
	nodes    []node
	leafSize int
	built    bool
}

func New(leafSize int) *BVH {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	return &BVH{leafSize: leafSize}
}

// Insert queues a record for the next Build. Empty boxes are ignored.
func (b *BVH) Insert(bounds geom.AABB, id ecs.EntityID) bool {
	if bounds.IsEmpty() {
		return false
	}
	b.items = append(b.items, Item{Bounds: bounds, Entity: id})
	b.built = false
	return true
}

func (b *BVH) Len() int      { return len(b.items) }
func (b *BVH) Built() bool   { return b.built }
func (b *BVH) NodeCount() int { return len(b.nodes) }

// Bounds returns the root box (empty for an empty tree).
func (b *BVH) Bounds() geom.AABB {
	if len(b.nodes) == 0 {
		return geom.EmptyAABB()
	}
	return b.nodes[0].bounds
}

// Reset drops all items and nodes.
func (b *BVH) Reset() {
	b.items = b.items[:0]
	b.nodes = b.nodes[:0]
	b.built = false
}

// Build constructs the tree top-down with a binned surface area heuristic,
// falling back to a median split when binning cannot separate the items.
func (b *BVH) Build() {
	b.nodes = b.nodes[:0]
	if len(b.items) > 0 {
		if cap(b.nodes) == 0 {
			b.nodes = make([]node, 0, 2*len(b.items)/b.leafSize+1)
		}
		b.build(0, len(b.items))
	}
	b.built = true
}

func (b *BVH) build(start, end int) int32 {
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, node{})

	bounds := geom.EmptyAABB()
	centroids := geom.EmptyAABB()
	for _, it := range b.items[start:end] {
		bounds = bounds.Union(it.Bounds)
		centroids.ExtendPoint(it.Bounds.Center())
	}
	n := end - start
	axis := centroids.LongestAxis()
	lo := centroids.Min[axis]
	extent := centroids.Max[axis] - lo
	if n <= b.leafSize || extent <= 0 {
		b.nodes[idx] = node{bounds: bounds, start: int32(start), count: int32(n)}
		return idx
	}

	mid := b.partitionSAH(start, end, axis, lo, extent)
	if mid <= start || mid >= end {
		items := b.items[start:end]
		slices.SortFunc(items, func(x, y Item) int {
			cx, cy := x.Bounds.Center()[axis], y.Bounds.Center()[axis]
			switch {
			case cx < cy:
				return -1
			case cx > cy:
				return 1
			}
			return 0
		})
		mid = start + n/2
	}

	b.build(start, mid)
	right := b.build(mid, end)
	b.nodes[idx] = node{bounds: bounds, right: right}
	return idx
}

func binOf(c, lo, extent float32) int {
	k := int(sahBins * (c - lo) / extent)
	if k >= sahBins {
		k = sahBins - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}

// partitionSAH picks the cheapest of the sahBins-1 planes along axis and
// partitions items around it. Returns the first index of the right side.
func (b *BVH) partitionSAH(start, end, axis int, lo, extent float32) int {
	var binBounds [sahBins]geom.AABB
	var binCount [sahBins]int
	for i := range binBounds {
		binBounds[i] = geom.EmptyAABB()
	}
	for _, it := range b.items[start:end] {
		k := binOf(it.Bounds.Center()[axis], lo, extent)
		binBounds[k] = binBounds[k].Union(it.Bounds)
		binCount[k]++
	}

	var leftArea [sahBins]float32
	var leftCount [sahBins]int
	acc := geom.EmptyAABB()
	cnt := 0
	for i := 0; i < sahBins-1; i++ {
		acc = acc.Union(binBounds[i])
		cnt += binCount[i]
		leftArea[i], leftCount[i] = acc.SurfaceArea(), cnt
	}

	bestSplit, bestCost := -1, float32(0)
	acc = geom.EmptyAABB()
	cnt = 0
	for i := sahBins - 1; i > 0; i-- {
		acc = acc.Union(binBounds[i])
		cnt += binCount[i]
		if leftCount[i-1] == 0 || cnt == 0 {
			continue
		}
		cost := float32(leftCount[i-1])*leftArea[i-1] + float32(cnt)*acc.SurfaceArea()
		if bestSplit < 0 || cost < bestCost {
			bestSplit, bestCost = i, cost
		}
	}
	if bestSplit < 0 {
		return start
	}

	mid := start
	for i := start; i < end; i++ {
		if binOf(b.items[i].Bounds.Center()[axis], lo, extent) < bestSplit {
			b.items[i], b.items[mid] = b.items[mid], b.items[i]
			mid++
		}
	}
	return mid
}

// Intersect appends every item whose box the ray enters to out. Order
// follows traversal and carries no distance meaning.
func (b *BVH) Intersect(r geom.Ray, out []Candidate) []Candidate {
	if !b.built || len(b.nodes) == 0 {
		return out
	}
	stack := make([]int32, 1, 64)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &b.nodes[i]
		if _, ok := n.bounds.IntersectRay(r); !ok {
			continue
		}
		if n.count > 0 {
			for _, it := range b.items[n.start : n.start+n.count] {
				if t, ok := it.Bounds.IntersectRay(r); ok {
					out = append(out, Candidate{Item: it, T: t})
				}
			}
			continue
		}
		stack = append(stack, n.right, i+1)
	}
	return out
}

// Visible appends every item whose box overlaps the frustum to out.
func (b *BVH) Visible(f geom.Frustum, out []Item) []Item {
	if !b.built || len(b.nodes) == 0 {
		return out
	}
	stack := make([]int32, 1, 64)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &b.nodes[i]
		if !f.IntersectsAABB(n.bounds) {
			continue
		}
		if n.count > 0 {
			for _, it := range b.items[n.start : n.start+n.count] {
				if f.IntersectsAABB(it.Bounds) {
					out = append(out, it)
				}
			}
			continue
		}
		stack = append(stack, n.right, i+1)
	}
	return out
}

// Depth returns the number of levels in the built tree.
func (b *BVH) Depth() int {
	if len(b.nodes) == 0 {
		return 0
	}
	var walk func(i int32) int
	walk = func(i int32) int {
		n := b.nodes[i]
		if n.count > 0 {
			return 1
		}
		return 1 + max(walk(i+1), walk(n.right))
	}
	return walk(0)
}
