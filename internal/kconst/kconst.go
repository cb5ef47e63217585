/*
 * pandos - Kernel-wide constants shared across subsystems.
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

// Package kconst holds the numeric constants that the original uMPS3/PandOS
// headers define once and every phase of the kernel depends on: process and
// message pool sizes, the time slice, status/cause register bit layouts, and
// the system service call numbers. Keeping them in one leaf package avoids
// import cycles between kernel, ssi, support and pager.
package kconst

const (
	MaxProc     = 50 // process pool size
	MaxMessages = 50 // message pool size
	UProcMax    = 8  // user processes launched at boot
	MaxPages    = 32 // page table entries per process
	OSFrames    = 32 // RAM frames reserved for the kernel, not paged

	// SwapPoolFrames is the pager's frame pool size, POOLSIZE = UPROCMAX*2:
	// two frames per U-proc keeps every process able to make forward
	// progress even when its working set exceeds one frame.
	SwapPoolFrames = UProcMax * 2

	TimeSlice = 5000    // microseconds, scheduler quantum
	PseudoSec = 100_000 // microseconds, pseudo-clock tick
	Never     = 0x7FFFFFFF
)

// Status register bits (Cause/Status per the uMPS3 architecture manual).
const (
	StatusAllOff  = 0x00000000
	StatusUserOn  = 0x00000008
	StatusKUc     = 0x00000002
	StatusIEPrev  = 0x00000004
	StatusIECur   = 0x00000001
	StatusIM      = 0x0000FF00
	StatusTEBitOn = 0x08000000
)

// Cause register decode.
const (
	GetExecCode    = 0x0000007C
	CauseShift     = 2
	ExcTLBInvLoad  = 2
	ExcTLBInvStore = 3
	ExcTLBModified = 1
	ExcSyscall     = 8
	ExcBreakpoint  = 9
	ExcPrivInstr   = 10
)

// EntryHI/EntryLO decode.
const (
	GetPageNo = 0x3FFFF000
	VPNShift  = 12
	ASIDShift = 6
	DirtyOn   = 0x00000400
	ValidOn   = 0x00000200
	GlobalOn  = 0x00000100
)

// System service numbers, carried in the Service field of an ssi.Request.
// EndIO is not user-visible, and nothing in this module sends it: the device
// interrupt handler wakes the blocked process directly.
const (
	CreateProcess = 1
	TermProcess   = 2
	DoIO          = 3
	GetTime       = 4
	ClockWait     = 5
	GetSupportPtr = 6
	GetProcessID  = 7
	EndIO         = 8
)

// Kernel-restricted syscalls, invoked directly via SYSCALL from kernel mode.
const (
	SendMessage    = -1
	ReceiveMessage = -2
)

// Support-level service numbers, invoked by a U-proc's SST over the same
// send/receive mailbox protocol as the SSI.
const (
	GetTOD        = 1
	Terminate     = 2
	WritePrinter  = 3
	WriteTerminal = 4
)

// Sentinel values for SEND/RECEIVE. AnyMessage doubles as the "OK" result
// SEND returns on success, matching the original's convention that a
// successful send's return value is never inspected by the caller.
const (
	AnyMessage   = 0
	Ok           = 0
	MsgNoGood    = -1
	DestNotExist = -2
)

const (
	PageSize = 4096
	WordLen  = 4
)
