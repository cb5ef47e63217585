/*
 * pandos - CPU trait: the primitives the kernel needs from the simulated
 * MIPS/uMPS3 processor.
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

// Package cpustate narrows everything the kernel needs from the simulated
// processor down to one interface, CPU, so the scheduler, exception
// dispatcher, and pager can be exercised against a deterministic Sim without
// ever touching a real uMPS3 binding. A production build wires a different
// implementation behind the same interface; nothing above this package
// needs to know which one it got.
package cpustate

// State is the saved processor context: general-purpose registers plus the
// control registers the kernel context-switches on every dispatch. It
// mirrors the uMPS3 state_t layout closely enough that LoadState/State can
// round-trip a process's saved context without loss.
type State struct {
	Entry  [32]uint32 // general-purpose registers, r0 unused
	PC     uint32
	Status uint32
	Cause  uint32
	HI     uint32
	LO     uint32
	EntryHI uint32
}

// CPU is the narrow trait the kernel programs against. Every method call
// below corresponds to a single uMPS3 instruction or BIOS-data-page access
// in the original kernel; keeping them as one interface lets kernel code
// stay oblivious to whether it is driving real hardware or a test Sim.
type CPU interface {
	// State returns the processor's current saved context.
	State() *State
	// LoadState installs s as the processor's context and begins
	// executing at s.PC. Used by the scheduler to dispatch a process and
	// by the exception handler to resume the pass-up-or-die target.
	LoadState(s *State)
	// LoadContext installs a fresh support-level context — stack
	// pointer, status, and entry point — the way LDST does for a
	// pass-up handler with no saved process state of its own yet.
	LoadContext(sp, status, pc uint32)

	// SetStatus and Status manipulate the processor status register
	// (interrupt and kernel/user mode bits).
	SetStatus(status uint32)
	Status() uint32

	// SetTimer arms the interval timer to fire in us microseconds;
	// TimerRemaining reads how much is left on it. Used for both the
	// per-process time-slice timer and the device-independent interval
	// timer that drives the pseudo-clock.
	SetTimer(us uint32)
	TimerRemaining() uint32

	// Cause returns the current Cause register, from which the
	// exception handler decodes the exception code.
	Cause() uint32

	// EntryHi/SetEntryHi/SetEntryLo manipulate the TLB entry registers
	// used by TLB refill and the pager's TLB update after a page load.
	EntryHi() uint32
	SetEntryHi(entryHi uint32)
	SetEntryLo(entryLo uint32)

	// TLBProbe searches the TLB for EntryHi's VPN/ASID and reports the
	// matching index, or present=false if there was no match (P bit
	// set in the Index register).
	TLBProbe() (index uint32, present bool)
	// TLBWriteIndexed writes EntryHi/EntryLo into the TLB slot last
	// located by TLBProbe.
	TLBWriteIndexed()
	// TLBWriteRandom writes EntryHi/EntryLo into a pseudo-randomly
	// chosen TLB slot, used by the pager whenever TLBProbe finds no
	// entry for the page.
	TLBWriteRandom()

	// Halt stops the simulated processor, the same effect as the HALT
	// instruction: all processes have terminated or deadlocked.
	Halt()
	// Wait puts the processor into the WAIT state until the next
	// interrupt, entered when the ready queue is empty but some process
	// is still blocked waiting on I/O or the pseudo-clock.
	Wait()
	// Panic halts the processor with a diagnostic reason, the
	// equivalent of the original kernel's PANIC() macro.
	Panic(reason string)
}
