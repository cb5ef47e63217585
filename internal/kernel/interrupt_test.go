package kernel

/*
 * pandos - Tests for the top-level interrupt handler.
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

	"github.com/rgriswold/pandos/internal/cpustate"
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/klist"
)

// fakeBitmap is a hand-rolled PendingLines/DeviceStatus double, standing
// in for devsim.InterruptBitmap so these tests exercise HandleInterrupt's
// scan/priority logic without dragging in a devsim dependency.
type fakeBitmap struct {
	lines        map[int]uint32
	transmit     uint32
	receive      uint32
	acknowledged []int
}

func (b *fakeBitmap) Pending(line int) uint32 { return b.lines[line] }

func (b *fakeBitmap) PendingTerminal() (transmit, receive uint32) {
	return b.transmit, b.receive
}

func (b *fakeBitmap) Status(line, dev int, write bool) uint32 {
	b.acknowledged = append(b.acknowledged, line*100+dev)
	return 0xAA
}

func TestHandleInterruptExitsImmediatelyWhenDisabled(t *testing.T) {
	ctx := newTestContext(4)
	bm := &fakeBitmap{lines: map[int]uint32{3: 1}}
	if h := ctx.HandleInterrupt(0, bm, bm); h != klist.None {
		t.Errorf("HandleInterrupt with interrupts disabled got: %v expected: klist.None", h)
	}
	if len(bm.acknowledged) != 0 {
		t.Error("HandleInterrupt read device status despite interrupts being disabled")
	}
}

func TestHandleInterruptScansExternalLinesInOrder(t *testing.T) {
	ctx := newTestContext(4)
	self := ctx.CreateProcess(klist.None, cpustate.State{}, nil)
	ctx.BlockOnDevice(5, 2, self)

	bm := &fakeBitmap{lines: map[int]uint32{
		3: 0, // nothing pending
		4: 0,
		5: 1 << 2,
		6: 1 << 1, // would also match, but line 5 comes first
	}}

	h := ctx.HandleInterrupt(kconst.StatusIECur, bm, bm)
	if h != self {
		t.Errorf("HandleInterrupt got: %v expected: %v", h, self)
	}
	if len(bm.acknowledged) != 1 || bm.acknowledged[0] != 502 {
		t.Errorf("HandleInterrupt acknowledged %v, expected exactly line 5 dev 2", bm.acknowledged)
	}
}

func TestHandleInterruptPrefersTerminalTransmitOverReceive(t *testing.T) {
	ctx := newTestContext(4)
	writer := ctx.CreateProcess(klist.None, cpustate.State{}, nil)
	reader := ctx.CreateProcess(klist.None, cpustate.State{}, nil)
	ctx.BlockOnTerminal(0, true, writer)
	ctx.BlockOnTerminal(0, false, reader)

	bm := &fakeBitmap{transmit: 1, receive: 1}
	h := ctx.HandleInterrupt(kconst.StatusIECur, bm, bm)
	if h != writer {
		t.Errorf("HandleInterrupt got: %v expected writer: %v", h, writer)
	}
}

func TestHandleInterruptDispatchesExactlyOne(t *testing.T) {
	ctx := newTestContext(4)
	a := ctx.CreateProcess(klist.None, cpustate.State{}, nil)
	b := ctx.CreateProcess(klist.None, cpustate.State{}, nil)
	ctx.BlockOnDevice(3, 0, a)
	ctx.BlockOnDevice(3, 1, b)

	bm := &fakeBitmap{lines: map[int]uint32{3: (1 << 0) | (1 << 1)}}
	h := ctx.HandleInterrupt(kconst.StatusIECur, bm, bm)
	if h != a {
		t.Errorf("HandleInterrupt got: %v expected: %v", h, a)
	}
	if len(bm.acknowledged) != 1 {
		t.Errorf("HandleInterrupt acknowledged %d devices, expected exactly 1", len(bm.acknowledged))
	}
	if ctx.WaitingCount() != 1 {
		t.Errorf("WaitingCount got: %d expected: 1 (b still blocked)", ctx.WaitingCount())
	}
}
