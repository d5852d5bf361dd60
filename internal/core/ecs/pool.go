package ecs

// DefaultPageSize is the element count of one pool page.
const DefaultPageSize = 64

// Pool stores values of one component type keyed by K in fixed-size pages,
// so bulk iteration walks contiguous memory while lookups go through a hash
// index. Removal swaps the last element into the hole, which means element
// addresses are NOT stable: any pointer returned by Emplace or Get is a loan
// that ends at the next Emplace, Remove or Clear.
type Pool[K comparable, V any] struct {
	pages    [][]V
	pageSize int
	index    map[K]int // key → global position
	keyOf    func(*V) K
	size     int
}

// NewPool creates a pool whose keys are extracted from values by keyOf.
func NewPool[K comparable, V any](keyOf func(*V) K, pageSize int) *Pool[K, V] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pool[K, V]{
		pageSize: pageSize,
		index:    make(map[K]int, pageSize),
		keyOf:    keyOf,
	}
}

func (p *Pool[K, V]) slot(pos int) *V {
	return &p.pages[pos/p.pageSize][pos%p.pageSize]
}

// Emplace copies v into the back page and indexes it. If a value with the
// same key is already stored, v is dropped and nil is returned: the first
// registration wins. Callers wanting upsert must Remove first.
func (p *Pool[K, V]) Emplace(v V) *V {
	k := p.keyOf(&v)
	if _, ok := p.index[k]; ok {
		return nil
	}
	pi := p.size / p.pageSize
	if pi == len(p.pages) {
		p.pages = append(p.pages, make([]V, 0, p.pageSize))
	}
	p.pages[pi] = append(p.pages[pi], v)
	p.index[k] = p.size
	p.size++
	return &p.pages[pi][len(p.pages[pi])-1]
}

// Get returns the value stored under k, or nil.
func (p *Pool[K, V]) Get(k K) *V {
	pos, ok := p.index[k]
	if !ok {
		return nil
	}
	return p.slot(pos)
}

func (p *Pool[K, V]) Has(k K) bool {
	_, ok := p.index[k]
	return ok
}

// Remove deletes the value under k by moving the last element into its slot
// and popping the tail. A page left empty is released.
func (p *Pool[K, V]) Remove(k K) bool {
	pos, ok := p.index[k]
	if !ok {
		return false
	}
	last := p.size - 1
	if pos != last {
		moved := p.slot(last)
		p.index[p.keyOf(moved)] = pos
		*p.slot(pos) = *moved
	}
	delete(p.index, k)

	lp := len(p.pages) - 1
	tail := p.pages[lp]
	var zero V
	tail[len(tail)-1] = zero
	p.pages[lp] = tail[:len(tail)-1]
	if len(p.pages[lp]) == 0 {
		p.pages[lp] = nil
		p.pages = p.pages[:lp]
	}
	p.size--
	return true
}

// Each visits every live value page by page. Not reentrant: fn must not
// Emplace into or Remove from the pool. Order is unspecified and changes
// after removals.
func (p *Pool[K, V]) Each(fn func(*V)) {
	for _, page := range p.pages {
		for i := range page {
			fn(&page[i])
		}
	}
}

// EachKey is Each with the value's key.
func (p *Pool[K, V]) EachKey(fn func(K, *V)) {
	for _, page := range p.pages {
		for i := range page {
			fn(p.keyOf(&page[i]), &page[i])
		}
	}
}

func (p *Pool[K, V]) Len() int { return p.size }

// Pages returns the number of allocated pages.
func (p *Pool[K, V]) Pages() int { return len(p.pages) }

func (p *Pool[K, V]) Clear() {
	p.pages = nil
	p.index = make(map[K]int, p.pageSize)
	p.size = 0
}
