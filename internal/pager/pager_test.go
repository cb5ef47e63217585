package pager

/*
 * pandos - Tests for page fault handling and FIFO frame replacement.
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
	"github.com/rgriswold/pandos/internal/support"
)

type fakeFlash struct {
	blocks map[int][]byte
}

func newFakeFlash() *fakeFlash { return &fakeFlash{blocks: map[int][]byte{}} }

func (f *fakeFlash) StartRead(block int, buf []byte) {
	if data, ok := f.blocks[block]; ok {
		copy(buf, data)
	}
}

func (f *fakeFlash) StartWrite(block int, buf []byte) {
	data := make([]byte, len(buf))
	copy(data, buf)
	f.blocks[block] = data
}

func (f *fakeFlash) ReadStatus() uint32 { return 1 }

func TestHandlePageFaultMarksPageValidAndLoadsTLB(t *testing.T) {
	flash := newFakeFlash()
	p := NewPager(flash, 4)
	sim := cpustate.NewSim(8)
	proc := support.NewDescriptor(2)
	proc.ExcContext[0].Saved.EntryHI = 5 << kconst.VPNShift

	p.HandlePageFault(sim, proc)

	if !proc.PageTable[5].Valid {
		t.Error("HandlePageFault did not mark the faulting page valid")
	}
	if _, present := sim.TLBProbe(); !present {
		t.Error("HandlePageFault did not load a TLB entry for the faulting page")
	}
}

func TestHandlePageFaultWritesBackDirtyVictim(t *testing.T) {
	flash := newFakeFlash()
	p := NewPager(flash, 1) // a single frame forces every fault to evict
	sim := cpustate.NewSim(8)
	proc := support.NewDescriptor(1)

	proc.ExcContext[0].Saved.EntryHI = 0 << kconst.VPNShift
	p.HandlePageFault(sim, proc)
	proc.PageTable[0].Dirty = true

	proc.ExcContext[0].Saved.EntryHI = 1 << kconst.VPNShift
	p.HandlePageFault(sim, proc)

	if proc.PageTable[0].Valid {
		t.Error("evicted page table entry still marked valid")
	}
	if _, ok := flash.blocks[blockFor(1, 0)]; !ok {
		t.Error("dirty victim was not written back to its backing-store block")
	}
}

func TestHandlePageFaultSkipsTLBModified(t *testing.T) {
	flash := newFakeFlash()
	p := NewPager(flash, 2)
	sim := cpustate.NewSim(8)
	proc := support.NewDescriptor(0)
	proc.ExcContext[0].Saved.Cause = kconst.ExcTLBModified << kconst.CauseShift

	p.HandlePageFault(sim, proc)

	for i, e := range proc.PageTable {
		if e.Valid {
			t.Fatalf("page %d marked valid after a TLB-Modified fault, which the pager should not resolve", i)
		}
	}
}

func TestPageNumberStackPageSpecialCase(t *testing.T) {
	got := pageNumber(0x3FFFF << kconst.VPNShift)
	if got != kconst.MaxPages-1 {
		t.Errorf("pageNumber(stack VPN) got: %d expected: %d", got, kconst.MaxPages-1)
	}
}
