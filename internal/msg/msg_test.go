package msg

/*
 * pandos - Tests for the message pool.
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

import (
	"testing"

	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/klist"
)

func newMsg(p *Pool, q *klist.List, sender int32, payload uint32) klist.Handle {
	h := p.Alloc()
	p.At(h).Sender = sender
	p.At(h).Payload = payload
	p.InsertMessage(q, h)
	return h
}

func TestPopMessageAnySenderIsFIFO(t *testing.T) {
	p := NewPool(4)
	q := p.MkEmptyMessageQ()
	a := newMsg(p, &q, 1, 10)
	newMsg(p, &q, 2, 20)

	h := p.PopMessage(&q, kconst.AnyMessage)
	if h != a {
		t.Errorf("PopMessage(Any) got: %d expected: %d", h, a)
	}
}

func TestPopMessageBySenderSkipsOthers(t *testing.T) {
	p := NewPool(4)
	q := p.MkEmptyMessageQ()
	newMsg(p, &q, 1, 10)
	b := newMsg(p, &q, 2, 20)
	newMsg(p, &q, 3, 30)

	h := p.PopMessage(&q, 2)
	if h != b {
		t.Errorf("PopMessage(2) got: %d expected: %d", h, b)
	}
	if p.Len(&q) != 2 {
		t.Errorf("queue length after targeted pop got: %d expected: %d", p.Len(&q), 2)
	}
}

func TestPopMessageNoMatchReturnsNone(t *testing.T) {
	p := NewPool(4)
	q := p.MkEmptyMessageQ()
	newMsg(p, &q, 1, 10)

	if h := p.PopMessage(&q, 9); h != klist.None {
		t.Errorf("PopMessage for absent sender got: %d expected: %d", h, klist.None)
	}
	if p.Len(&q) != 1 {
		t.Errorf("no-match pop should not remove anything, len got: %d expected: %d", p.Len(&q), 1)
	}
}

func TestPopMessageEmptyQueue(t *testing.T) {
	p := NewPool(2)
	q := p.MkEmptyMessageQ()
	if h := p.PopMessage(&q, kconst.AnyMessage); h != klist.None {
		t.Errorf("PopMessage on empty queue got: %d expected: %d", h, klist.None)
	}
}

func TestFreeClearsFields(t *testing.T) {
	p := NewPool(2)
	h := p.Alloc()
	p.At(h).Sender = 7
	p.At(h).Payload = 99
	p.Free(h)

	h2 := p.Alloc()
	if h2 != h {
		t.Fatalf("Alloc did not recycle freed handle")
	}
	if p.At(h2).Sender != 0 || p.At(h2).Payload != 0 {
		t.Errorf("Free did not clear message fields")
	}
}

func TestPushMessagePrepends(t *testing.T) {
	p := NewPool(4)
	q := p.MkEmptyMessageQ()
	a := newMsg(p, &q, 1, 10)
	b := p.Alloc()
	p.At(b).Sender = 2
	p.PushMessage(&q, b)

	if h := p.HeadMessage(&q); h != b {
		t.Errorf("HeadMessage after PushMessage got: %d expected: %d", h, b)
	}
	_ = a
}
