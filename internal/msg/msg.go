/*
 * pandos - Message pool and inter-process message queue operations.
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

// Package msg implements the fixed-size message pool the kernel's SEND and
// RECEIVE primitives exchange through: a free list of MaxMessages slots and
// FIFO queue operations, including the sender-filtered pop that RECEIVE(id)
// uses to pull a specific sender's reply out of a mailbox that may be
// holding several unrelated messages.
package msg

import (
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/klist"
)

// Message is a single in-flight message. A zero Message is not valid; all
// instances live inside a Pool's backing array and are reached through a
// klist.Handle.
type Message struct {
	Sender  int32 // PID of the sending process, 0 if none
	Payload uint32
}

// Pool owns the message arena.
type Pool struct {
	*klist.Pool
	msgs []Message
}

// NewPool allocates a message pool sized for n in-flight messages.
func NewPool(n int) *Pool {
	return &Pool{
		Pool: klist.NewPool(n),
		msgs: make([]Message, n+1),
	}
}

// DefaultPool returns a pool sized per kconst.MaxMessages, the size of the
// original kernel's static msgTable.
func DefaultPool() *Pool {
	return NewPool(kconst.MaxMessages)
}

// At returns the Message for h.
func (p *Pool) At(h klist.Handle) *Message {
	return &p.msgs[h]
}

// Alloc removes a message from the free list and clears it, or returns
// klist.None if the pool is exhausted.
func (p *Pool) Alloc() klist.Handle {
	h := p.Pool.Alloc()
	if h == klist.None {
		return klist.None
	}
	*p.At(h) = Message{}
	return h
}

// Free clears h's fields and returns it to the free list.
func (p *Pool) Free(h klist.Handle) {
	*p.At(h) = Message{}
	p.Pool.Free(h)
}

// MkEmptyMessageQ returns a fresh, empty message queue owned by this pool.
// Every PCB inbox is one of these.
func (p *Pool) MkEmptyMessageQ() klist.List {
	return p.NewList()
}

// EmptyMessageQ reports whether q has no messages queued.
func (p *Pool) EmptyMessageQ(q *klist.List) bool {
	return p.Empty(q)
}

// InsertMessage appends h to the tail of q.
func (p *Pool) InsertMessage(q *klist.List, h klist.Handle) {
	p.PushBack(q, h)
}

// PushMessage prepends h to the head of q, used when a message delivery
// fails and must be put back for the next RECEIVE attempt.
func (p *Pool) PushMessage(q *klist.List, h klist.Handle) {
	p.PushFront(q, h)
}

// PopMessage removes and returns the first message in q sent by senderPID,
// or the first message in q if senderPID is kconst.AnyMessage. It returns
// klist.None if q is empty or holds nothing from the requested sender.
func (p *Pool) PopMessage(q *klist.List, senderPID int32) klist.Handle {
	if p.Empty(q) {
		return klist.None
	}
	if senderPID == kconst.AnyMessage {
		return p.PopFront(q)
	}
	var found klist.Handle
	p.Walk(q, func(h klist.Handle) {
		if found == klist.None && p.At(h).Sender == senderPID {
			found = h
		}
	})
	if found != klist.None {
		p.Remove(found)
	}
	return found
}

// HeadMessage returns the first message in q without removing it, or
// klist.None if q is empty.
func (p *Pool) HeadMessage(q *klist.List) klist.Handle {
	return p.Front(q)
}
