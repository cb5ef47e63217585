/*
 * pandos - Process control block pool and process queue operations.
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

// Package pcb implements the process control block pool: a fixed arena of
// MaxProc process descriptors, a free list, generic process queues built on
// top of klist, and the process tree (parent/child/sibling) that Terminate
// and the scheduler walk recursively.
//
// A PCB handle participates in up to three independent linkages at once: the
// queue it is waiting on (ready queue, a device queue, or the free list),
// its position in a parent's child list, and its message inbox. klist.Node
// linkage is per-(pool, handle), so the queue and sibling roles are backed
// by two separate klist.Pool arenas sized identically, and the inbox is a
// list of the msg.Pool; sharing one arena across roles would mean linking a
// PCB into the ready queue could corrupt its sibling-list pointers.
package pcb

import (
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/klist"
)

// Support is the opaque support-level descriptor pointer a PCB carries. The
// kernel never looks inside it; only the support and pager packages do. It
// is typed as any here to avoid an import cycle (support depends on pcb).
type Support = any

// State is the saved processor context. Defined here, rather than imported
// from cpustate, to avoid pcb depending on the CPU trait package; kernel
// converts between the two at context-switch time.
type State struct {
	Entry [32]uint32 // general-purpose registers
	HI    uint32
	LO    uint32
	PC    uint32
	Cause uint32
	Status uint32
	EntryHI uint32
}

// PCB is a single process control block. A zero PCB is not valid; all
// instances live inside a Pool's backing array and are reached through a
// klist.Handle.
type PCB struct {
	parent klist.Handle
	sibs   klist.List // this process's siblings, as seen from its parent
	kids   klist.List // sentinel for this process's own children

	inbox *klist.List // owned by the msg.Pool that allocates message handles

	State   State
	Time    int64 // cumulative CPU time in microseconds
	Support Support
	PID     int
}

// Pool owns the process arena: one klist.Pool for handle allocation and
// queue membership (free list, ready queue, device wait queues), and a
// second, parallel klist.Pool purely for sibling-list linkage.
type Pool struct {
	handles *klist.Pool
	sibs    *klist.Pool
	procs   []PCB
	ready   klist.List
	nextID  int
}

// NewPool allocates a process pool sized for n concurrent processes.
func NewPool(n int) *Pool {
	p := &Pool{
		handles: klist.NewPool(n),
		sibs:    klist.NewPool(n),
		procs:   make([]PCB, n+1),
		nextID:  1,
	}
	p.ready = p.handles.NewList()
	return p
}

// DefaultPool returns a pool sized per kconst.MaxProc, the size the original
// kernel's static pcbTable used.
func DefaultPool() *Pool {
	return NewPool(kconst.MaxProc)
}

// At returns the PCB for h. procs never grows after NewPool, so the pointer
// stays valid for the Pool's lifetime.
func (p *Pool) At(h klist.Handle) *PCB {
	return &p.procs[h]
}

// Alloc removes a PCB from the free list, zeroes its fields (mirroring the
// original's allocPcb), assigns it a fresh PID, and returns its handle. It
// returns klist.None if the pool is exhausted.
func (p *Pool) Alloc() klist.Handle {
	h := p.handles.Alloc()
	if h == klist.None {
		return klist.None
	}
	pr := p.At(h)
	*pr = PCB{}
	pr.parent = klist.None
	pr.kids = p.sibs.NewList()
	pr.PID = p.nextID
	p.nextID++
	return h
}

// Free returns h to the free list. The caller must have already detached h
// from any queue, the process tree, and drained its inbox.
func (p *Pool) Free(h klist.Handle) {
	p.handles.Free(h)
}

// SetInbox wires h's mailbox to a list allocated by the msg.Pool that owns
// message handles. Called once by kernel wiring right after Alloc.
func (p *Pool) SetInbox(h klist.Handle, l *klist.List) {
	p.At(h).inbox = l
}

// Inbox returns h's message queue, or nil if SetInbox has not been called.
func (p *Pool) Inbox(h klist.Handle) *klist.List {
	return p.At(h).inbox
}

// Ready returns the scheduler's ready queue.
func (p *Pool) Ready() *klist.List {
	return &p.ready
}

// MkEmptyProcQ returns a fresh, empty process queue owned by this pool. Used
// for device wait queues and the pseudo-clock queue.
func (p *Pool) MkEmptyProcQ() klist.List {
	return p.handles.NewList()
}

// EmptyProcQ reports whether q has no processes enqueued.
func (p *Pool) EmptyProcQ(q *klist.List) bool {
	return p.handles.Empty(q)
}

// InsertProcQ appends h to the tail of q.
func (p *Pool) InsertProcQ(q *klist.List, h klist.Handle) {
	p.handles.PushBack(q, h)
}

// HeadProcQ returns the head of q without removing it, or klist.None.
func (p *Pool) HeadProcQ(q *klist.List) klist.Handle {
	return p.handles.Front(q)
}

// RemoveProcQ removes and returns the head of q, or klist.None if empty.
func (p *Pool) RemoveProcQ(q *klist.List) klist.Handle {
	return p.handles.PopFront(q)
}

// OutProcQ removes h from q if present and returns it, or klist.None if h
// was not on q.
func (p *Pool) OutProcQ(q *klist.List, h klist.Handle) klist.Handle {
	if !p.handles.Contains(q, h) {
		return klist.None
	}
	p.handles.Remove(h)
	return h
}

// IsInPCBFreePool reports whether h currently sits on the pool's free list.
func (p *Pool) IsInPCBFreePool(h klist.Handle) bool {
	return p.handles.InFreePool(h)
}

// IsInList reports whether h is a member of q.
func (p *Pool) IsInList(q *klist.List, h klist.Handle) bool {
	return p.handles.Contains(q, h)
}

// EmptyChild reports whether h has no children.
func (p *Pool) EmptyChild(h klist.Handle) bool {
	return p.sibs.Empty(&p.At(h).kids)
}

// InsertChild makes child a child of parent, appended to parent's child
// list, and records parent on child.
func (p *Pool) InsertChild(parent, child klist.Handle) {
	p.At(child).parent = parent
	p.sibs.PushBack(&p.At(parent).kids, child)
}

// RemoveChild detaches and returns parent's first child, or klist.None if
// parent has none.
func (p *Pool) RemoveChild(parent klist.Handle) klist.Handle {
	kids := &p.At(parent).kids
	if p.sibs.Empty(kids) {
		return klist.None
	}
	child := p.sibs.PopFront(kids)
	p.At(child).parent = klist.None
	return child
}

// OutChild detaches h from its parent's child list and returns h, or
// klist.None if h has no parent.
func (p *Pool) OutChild(h klist.Handle) klist.Handle {
	pr := p.At(h)
	if pr.parent == klist.None {
		return klist.None
	}
	p.sibs.Remove(h)
	pr.parent = klist.None
	return h
}

// Parent returns h's parent handle, or klist.None if h is a root.
func (p *Pool) Parent(h klist.Handle) klist.Handle {
	return p.At(h).parent
}

// Progeny calls fn once for every descendant of h and finally for h itself,
// depth-first — the order the original kernel's recursive Terminate walks
// the process tree in, so children are always destroyed before their
// parent. fn is expected to detach the handle it is given (OutChild or
// RemoveChild) as part of destroying it; Progeny re-reads h's child list
// after each call rather than snapshotting it up front.
func (p *Pool) Progeny(h klist.Handle, fn func(klist.Handle)) {
	for !p.EmptyChild(h) {
		child := p.sibs.Front(&p.At(h).kids)
		p.Progeny(child, fn)
	}
	fn(h)
}
