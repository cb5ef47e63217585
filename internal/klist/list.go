/*
 * pandos - Intrusive list primitives over stable pool handles.
 *
 * Copyright 2025, The PandOS Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package klist implements the doubly-linked, sentinel-headed queues the
// kernel uses for the ready queue, device wait queues, message inboxes and
// the PCB/message free pools. Records live in a fixed-size backing array and
// are addressed by a stable int32 handle instead of a pointer, so a queue
// never allocates and a handle is never invalidated by another record's
// motion through memory.
package klist

// Handle identifies a slot in a Pool's backing array of data nodes. The zero
// Handle is reserved to mean "no slot." List sentinels live outside the data
// array and are addressed with negative handles, so None (0) never collides
// with either kind.
type Handle int32

// None is the nil handle.
const None Handle = 0

// Node is the queue linkage of one pooled handle. A Pool keeps the Nodes in
// its own slice, indexed by handle, so the record types stored alongside
// need not know about queues.
type Node struct {
	next, prev Handle
}

// List is a circular, sentinel-headed queue of handles. Obtain one from
// Pool.NewList; the zero List is not usable on its own because it has no
// sentinel allocated.
type List struct {
	head Handle
}

// Pool owns a fixed number of data handles (1..n) plus their Node linkage,
// a free list of currently-unused handles, and the out-of-band sentinel
// storage for every List it has created. Typed wrappers hold a Pool and
// store the domain payload per slot alongside it (see pcb.Pool, msg.Pool).
type Pool struct {
	nodes []Node     // index 0 unused; handles are 1-based so None==0 works
	sents []Node     // sentinel storage, addressed by negative handles
	free  List
}

// NewPool allocates a pool of n handles, all initially on the free list.
func NewPool(n int) *Pool {
	p := &Pool{nodes: make([]Node, n+1)}
	p.free = p.NewList()
	for i := 1; i <= n; i++ {
		p.PushBack(&p.free, Handle(i))
	}
	return p
}

func (p *Pool) at(h Handle) *Node {
	if h < 0 {
		return &p.sents[-h-1]
	}
	return &p.nodes[h]
}

// insert splices handle h between prev and next.
func (p *Pool) insert(h, prev, next Handle) {
	p.at(next).prev = h
	p.at(h).next = next
	p.at(h).prev = prev
	p.at(prev).next = h
}

// unlink removes h from whatever list it is on, given by its own next/prev,
// and leaves h pointing at itself so a stray second Remove is harmless.
func (p *Pool) unlink(h Handle) {
	n := p.at(h)
	prev, next := n.prev, n.next
	p.at(prev).next = next
	p.at(next).prev = prev
	n.next, n.prev = h, h
}

// NewList allocates a new empty queue owned by this pool. Every kernel queue
// (ready queue, per-device wait queues, pseudo-clock queue, message inboxes)
// is a List obtained this way.
func (p *Pool) NewList() List {
	p.sents = append(p.sents, Node{})
	h := Handle(-len(p.sents))
	s := &p.sents[-h-1]
	s.next, s.prev = h, h
	return List{head: h}
}

// PushBack inserts h at the tail of l. O(1).
func (p *Pool) PushBack(l *List, h Handle) {
	p.insert(h, p.at(l.head).prev, l.head)
}

// PushFront inserts h at the head of l. O(1).
func (p *Pool) PushFront(l *List, h Handle) {
	p.insert(h, l.head, p.at(l.head).next)
}

// Empty reports whether l has no elements.
func (p *Pool) Empty(l *List) bool {
	return p.at(l.head).next == l.head
}

// Front returns the head element of l, or None if l is empty.
func (p *Pool) Front(l *List) Handle {
	if p.Empty(l) {
		return None
	}
	return p.at(l.head).next
}

// Back returns the tail element of l, or None if l is empty.
func (p *Pool) Back(l *List) Handle {
	if p.Empty(l) {
		return None
	}
	return p.at(l.head).prev
}

// PopFront removes and returns the head element of l, or None if empty.
func (p *Pool) PopFront(l *List) Handle {
	h := p.Front(l)
	if h == None {
		return None
	}
	p.unlink(h)
	return h
}

// Remove deletes h from whatever list currently holds it. It is a no-op if h
// is not linked into any list.
func (p *Pool) Remove(h Handle) {
	p.unlink(h)
}

// Contains reports whether h appears in l. O(n); used only for invariant
// checks and the rare case in the kernel where membership, not order,
// matters (e.g. "is the SSI already on the ready queue").
func (p *Pool) Contains(l *List, h Handle) bool {
	for cur := p.at(l.head).next; cur != l.head; cur = p.at(cur).next {
		if cur == h {
			return true
		}
	}
	return false
}

// Len returns the number of elements in l. O(n); used by invariant checks and
// diagnostics, never on a hot kernel path.
func (p *Pool) Len(l *List) int {
	n := 0
	for cur := p.at(l.head).next; cur != l.head; cur = p.at(cur).next {
		n++
	}
	return n
}

// Walk calls fn for every handle in l, front to back. fn must not mutate l.
func (p *Pool) Walk(l *List, fn func(Handle)) {
	for cur := p.at(l.head).next; cur != l.head; cur = p.at(cur).next {
		fn(cur)
	}
}

// Alloc removes and returns a handle from the free list, or None if the pool
// is exhausted.
func (p *Pool) Alloc() Handle {
	return p.PopFront(&p.free)
}

// Free returns h to the free list. The caller is responsible for having
// first removed h from any list it was linked into (Alloc'd handles never
// are, but a record pulled off a device queue for destruction must be
// Remove'd before it is Freed).
func (p *Pool) Free(h Handle) {
	p.PushFront(&p.free, h)
}

// InFreePool reports whether h is currently sitting on the free list.
func (p *Pool) InFreePool(h Handle) bool {
	return p.Contains(&p.free, h)
}

// FreeCount returns the number of handles currently available to Alloc.
func (p *Pool) FreeCount() int {
	return p.Len(&p.free)
}
