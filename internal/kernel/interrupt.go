/*
 * pandos - Nucleus: interrupt handling.
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

package kernel

import (
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/klist"
)

// DeviceResult is the status word a device interrupt delivers, carried to
// the blocked process as its SYSCALL DOIO return value.
type DeviceResult uint32

// HandlePLT is the local timer interrupt: the running process's quantum
// expired. It copies the CPU's current context back into current's PCB,
// puts current on the ready queue, and reschedules — the same sequence as
// the original local-timer handler copying the BIOS data page's saved
// exception state into the PCB before calling schedule().
func (ctx *Context) HandlePLT() {
	if ctx.current == klist.None {
		ctx.Schedule()
		return
	}
	copyState(&ctx.Procs.At(ctx.current).State, ctx.CPU.State())
	ctx.Procs.InsertProcQ(ctx.Procs.Ready(), ctx.current)
	ctx.current = klist.None
	ctx.Schedule()
}

// HandleIntervalTimer is the pseudo-clock's interrupt (line 2): every
// process waiting on CLOCKWAIT is released and moved to the ready queue,
// its saved registers left as they were. waitingCount is
// decremented once per process actually drained, not by the full queue
// length blindly, matching the original ITInterruptHandler.
func (ctx *Context) HandleIntervalTimer() {
	for {
		h := ctx.Procs.RemoveProcQ(&ctx.clockQueue)
		if h == klist.None {
			break
		}
		ctx.waitingCount--
		ctx.Procs.InsertProcQ(ctx.Procs.Ready(), h)
	}
	ctx.CPU.SetTimer(kconst.PseudoSec)
}

// BlockOnClock parks self on the pseudo-clock queue (the DOIO-alike for
// SYS5/CLOCKWAIT) and marks it waiting.
func (ctx *Context) BlockOnClock(self klist.Handle) {
	ctx.Procs.InsertProcQ(&ctx.clockQueue, self)
	ctx.waitingCount++
}

// BlockOnDevice parks self on the wait queue for the given external device
// line (3-6, as line-3) and device number.
func (ctx *Context) BlockOnDevice(line, dev int, self klist.Handle) {
	ctx.Procs.InsertProcQ(&ctx.extBlocked[line-3][dev], self)
	ctx.waitingCount++
}

// BlockOnTerminal parks self on the wait queue for a terminal's transmit
// (write=true) or receive (write=false) half.
func (ctx *Context) BlockOnTerminal(dev int, write bool, self klist.Handle) {
	sel := 1
	if write {
		sel = 0
	}
	ctx.Procs.InsertProcQ(&ctx.termBlocked[sel][dev], self)
	ctx.waitingCount++
}

// HandleDeviceInterrupt services one interrupt from an external device
// line/number, waking the single process (if any) blocked on it with
// status as its DOIO result.
func (ctx *Context) HandleDeviceInterrupt(line, dev int, status DeviceResult) klist.Handle {
	h := ctx.Procs.RemoveProcQ(&ctx.extBlocked[line-3][dev])
	if h == klist.None {
		return klist.None
	}
	ctx.waitingCount--
	ctx.Procs.At(h).State.Entry[ioStatusReg] = uint32(status)
	ctx.Procs.InsertProcQ(ctx.Procs.Ready(), h)
	return h
}

// HandleTerminalInterrupt services one terminal interrupt. The original
// kernel's interrupt handler always checks a terminal's transmit half
// before its receive half on every pass, so that a line able to satisfy
// both in the same scan always favors the writer; HandleTerminalInterrupt
// takes one resolved (write, status) pair per call and leaves that
// ordering to the caller scanning each device's two halves.
func (ctx *Context) HandleTerminalInterrupt(dev int, write bool, status DeviceResult) klist.Handle {
	sel := 1
	if write {
		sel = 0
	}
	h := ctx.Procs.RemoveProcQ(&ctx.termBlocked[sel][dev])
	if h == klist.None {
		return klist.None
	}
	ctx.waitingCount--
	ctx.Procs.At(h).State.Entry[ioStatusReg] = uint32(status)
	ctx.Procs.InsertProcQ(ctx.Procs.Ready(), h)
	return h
}

// ioStatusReg is the general-purpose register slot DOIO's result is
// deposited in, v0 in the uMPS3 calling convention.
const ioStatusReg = 2

// PendingLines reports which device on an external interrupt line has a
// completed operation outstanding, one bit per device number — the same
// shape as uMPS3's INTDEVBITMAP array, one word per line. PendingTerminal
// answers the same question for line 7's transmit and receive halves
// separately, since a terminal interrupt always needs both checked.
type PendingLines interface {
	Pending(line int) uint32
	PendingTerminal() (transmit, receive uint32)
}

// DeviceStatus reads back the status word for the device that raised a
// pending interrupt. The read is what a real status register treats as
// acknowledging the interrupt, per devsim.Regs.Acknowledge.
type DeviceStatus interface {
	Status(line, dev int, write bool) uint32
}

// External device interrupt lines. Lines 1 (PLT) and 2 (pseudo-clock) are
// not scanned by HandleInterrupt; uMPS3 raises those as distinct
// exceptions the caller routes straight to HandlePLT/HandleIntervalTimer.
const (
	lineExternalLo = 3
	lineExternalHi = 6
	lineTerminal   = 7
)

// HandleInterrupt is the nucleus's top-level interrupt handler, ported
// from the original interruptHandler(): it exits immediately if
// interrupts were disabled when the interrupt was raised, otherwise scans
// the external device lines in ascending order and then the terminal
// line, servicing the first pending device it finds (a terminal's
// transmit half before its receive half) and returning — exactly one
// interrupt dispatched per call, the same single-iteration-per-pass
// behavior the original's scan loop has.
func (ctx *Context) HandleInterrupt(prevStatus uint32, pending PendingLines, status DeviceStatus) klist.Handle {
	if prevStatus&kconst.StatusIECur == 0 {
		return klist.None
	}

	for line := lineExternalLo; line <= lineExternalHi; line++ {
		bits := pending.Pending(line)
		if bits == 0 {
			continue
		}
		dev := lowestSetBit(bits)
		return ctx.HandleDeviceInterrupt(line, dev, DeviceResult(status.Status(line, dev, false)))
	}

	transmit, receive := pending.PendingTerminal()
	if transmit != 0 {
		dev := lowestSetBit(transmit)
		return ctx.HandleTerminalInterrupt(dev, true, DeviceResult(status.Status(lineTerminal, dev, true)))
	}
	if receive != 0 {
		dev := lowestSetBit(receive)
		return ctx.HandleTerminalInterrupt(dev, false, DeviceResult(status.Status(lineTerminal, dev, false)))
	}

	return klist.None
}

// lowestSetBit returns the bit index of v's least significant set bit,
// the device-priority order a bitmap scan uses. v is assumed nonzero.
func lowestSetBit(v uint32) int {
	for i := 0; i < 32; i++ {
		if v&(1<<uint(i)) != 0 {
			return i
		}
	}
	return 0
}
