/*
 * pandos - Nucleus: scheduler, exception dispatch, and the SEND/RECEIVE
 * kernel primitives.
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

// Package kernel implements the nucleus: the round-robin scheduler, the
// exception dispatcher, the interrupt handler, and the two kernel syscalls
// (SEND and RECEIVE) that everything above the nucleus — the SSI, the
// support level, user processes — is built out of.
//
// Context holds every piece of mutable kernel state explicitly (the CPU
// trait, the PCB and message pools, the device wait queues, the process and
// waiting counts) rather than as package-level globals, so a test can stand
// up as many independent kernels as it needs and run them concurrently.
// Every method here corresponds to one function in the original kernel's
// phase2 sources and is meant to be called the same way those were: as a
// single hardware event (one trap, one interrupt line scan, one schedule
// decision), not as a free-running loop. A scenario test or the bootstrap
// harness drives the sequence of calls.
package kernel

import (
	"github.com/rgriswold/pandos/internal/cpustate"
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/klist"
	"github.com/rgriswold/pandos/internal/msg"
	"github.com/rgriswold/pandos/internal/pcb"
)

const (
	numExtLines = 4 // interrupt lines 3-6
	numDevices  = 8
)

// devKey addresses one device wait queue: an external device line/number
// pair, or a terminal (selector, device) pair.
type devKey struct {
	line, dev int
}

// Context is the nucleus's complete mutable state.
type Context struct {
	CPU   cpustate.CPU
	Procs *pcb.Pool
	Msgs  *msg.Pool

	extBlocked  [numExtLines][numDevices]klist.List
	termBlocked [2][numDevices]klist.List // 0 = transmit, 1 = receive
	clockQueue  klist.List

	SSI klist.Handle

	current      klist.Handle
	processCount int
	waitingCount int
}

// NewContext wires a fresh nucleus around procs and msgs, which the caller
// is expected to have sized per kconst.MaxProc/MaxMessages (or smaller,
// for a focused test).
func NewContext(cpu cpustate.CPU, procs *pcb.Pool, msgs *msg.Pool) *Context {
	ctx := &Context{CPU: cpu, Procs: procs, Msgs: msgs}
	ctx.clockQueue = procs.MkEmptyProcQ()
	for l := range ctx.extBlocked {
		for d := range ctx.extBlocked[l] {
			ctx.extBlocked[l][d] = procs.MkEmptyProcQ()
		}
	}
	for sel := range ctx.termBlocked {
		for d := range ctx.termBlocked[sel] {
			ctx.termBlocked[sel][d] = procs.MkEmptyProcQ()
		}
	}
	return ctx
}

// newProcess allocates a PCB, wires its inbox to Msgs, and bumps
// processCount. Every process the kernel ever runs — the SSI, SSTs, U-procs
// — is created this way.
func (ctx *Context) newProcess() klist.Handle {
	h := ctx.Procs.Alloc()
	if h == klist.None {
		return klist.None
	}
	inbox := ctx.Msgs.MkEmptyMessageQ()
	ctx.Procs.SetInbox(h, &inbox)
	ctx.processCount++
	return h
}

// CreateProcess allocates a new PCB as a child of parent, loads st as its
// initial state, attaches support (nil for a kernel-mode process such as
// the SSI or a swap-mutex server), and puts it on the ready queue. It
// returns klist.None if the process pool is exhausted (NOPROC).
func (ctx *Context) CreateProcess(parent klist.Handle, st cpustate.State, support pcb.Support) klist.Handle {
	h := ctx.newProcess()
	if h == klist.None {
		return klist.None
	}
	p := ctx.Procs.At(h)
	copyState(&p.State, &st)
	p.Support = support
	if parent != klist.None {
		ctx.Procs.InsertChild(parent, h)
	}
	ctx.Procs.InsertProcQ(ctx.Procs.Ready(), h)
	return h
}

func copyState(dst *pcb.State, src *cpustate.State) {
	dst.Entry = src.Entry
	dst.PC = src.PC
	dst.Status = src.Status
	dst.Cause = src.Cause
	dst.HI = src.HI
	dst.LO = src.LO
	dst.EntryHI = src.EntryHI
}

func toCPUState(dst *cpustate.State, src *pcb.State) {
	dst.Entry = src.Entry
	dst.PC = src.PC
	dst.Status = src.Status
	dst.Cause = src.Cause
	dst.HI = src.HI
	dst.LO = src.LO
	dst.EntryHI = src.EntryHI
}

// Terminate destroys h and its entire subtree, children first, mirroring
// the original kernel's terminateProcess/terminateProgeny/destroyProcess
// trio. It is a no-op if h is already on the free pool.
func (ctx *Context) Terminate(h klist.Handle) {
	if ctx.Procs.IsInPCBFreePool(h) {
		return
	}
	ctx.Procs.OutChild(h)
	ctx.Procs.Progeny(h, func(victim klist.Handle) {
		if victim != h {
			ctx.Procs.OutChild(victim)
		}
		ctx.destroy(victim)
	})
}

// destroy removes h from whichever queue currently holds it (updating
// waitingCount if it was blocked), drains its inbox back to the message
// pool — an explicit choice over the original's lazy recycling, see
// DESIGN.md — and returns its PCB to the free pool.
func (ctx *Context) destroy(h klist.Handle) {
	if ctx.Procs.IsInPCBFreePool(h) {
		return
	}
	if ctx.Procs.OutProcQ(ctx.Procs.Ready(), h) == klist.None {
		found := ctx.Procs.OutProcQ(&ctx.clockQueue, h) != klist.None
		if !found {
			for l := range ctx.extBlocked {
				for d := range ctx.extBlocked[l] {
					if ctx.Procs.OutProcQ(&ctx.extBlocked[l][d], h) != klist.None {
						found = true
					}
				}
			}
			for sel := range ctx.termBlocked {
				for d := range ctx.termBlocked[sel] {
					if ctx.Procs.OutProcQ(&ctx.termBlocked[sel][d], h) != klist.None {
						found = true
					}
				}
			}
		}
		if found {
			ctx.waitingCount--
		}
	}

	inbox := ctx.Procs.Inbox(h)
	for !ctx.Msgs.EmptyMessageQ(inbox) {
		ctx.Msgs.Free(ctx.Msgs.PopMessage(inbox, kconst.AnyMessage))
	}

	ctx.Procs.Free(h)
	ctx.processCount--
}

// ProcessCount and WaitingCount expose the nucleus's liveness counters,
// used by the scheduler's HALT/WAIT/PANIC decision and by tests asserting
// invariants hold after a sequence of operations.
func (ctx *Context) ProcessCount() int { return ctx.processCount }
func (ctx *Context) WaitingCount() int { return ctx.waitingCount }

// Schedule implements the round-robin dispatcher: pop the next ready
// process and load it, or decide the machine's fate if none is ready.
func (ctx *Context) Schedule() {
	next := ctx.Procs.RemoveProcQ(ctx.Procs.Ready())
	if next != klist.None {
		ctx.current = next
		ctx.CPU.SetTimer(kconst.TimeSlice)
		var st cpustate.State
		toCPUState(&st, &ctx.Procs.At(next).State)
		ctx.CPU.LoadState(&st)
		return
	}
	ctx.current = klist.None
	switch {
	case ctx.processCount == 1:
		ctx.CPU.Halt()
	case ctx.processCount > 0 && ctx.waitingCount > 0:
		ctx.CPU.SetStatus((kconst.StatusIECur | kconst.StatusIM) &^ kconst.StatusTEBitOn)
		ctx.CPU.Wait()
	case ctx.processCount > 0 && ctx.waitingCount == 0:
		ctx.CPU.Panic("deadlock: no ready or waiting processes remain")
	}
}

// Send implements the original kernel's sendMessage: copy payload into a
// freshly allocated message, deliver it to receiver's inbox, and — if
// receiver was not found running, ready, pseudoclock-blocked or
// device-blocked (i.e. it is parked on a RECEIVE retry) — put it back on
// the ready queue. Returns kconst.DestNotExist if receiver has already been
// recycled, or kconst.MsgNoGood if the message pool is exhausted.
func (ctx *Context) Send(sender, receiver klist.Handle, payload uint32) int32 {
	if ctx.Procs.IsInPCBFreePool(receiver) {
		return kconst.DestNotExist
	}

	found := receiver == ctx.current ||
		ctx.Procs.IsInList(ctx.Procs.Ready(), receiver) ||
		ctx.Procs.IsInList(&ctx.clockQueue, receiver) ||
		ctx.isInDeviceLists(receiver)

	h := ctx.Msgs.Alloc()
	if h == klist.None {
		return kconst.MsgNoGood
	}
	senderPID := int32(0)
	if sender != klist.None {
		senderPID = int32(ctx.Procs.At(sender).PID)
	}
	ctx.Msgs.At(h).Sender = senderPID
	ctx.Msgs.At(h).Payload = payload
	ctx.Msgs.InsertMessage(ctx.Procs.Inbox(receiver), h)

	if !found {
		ctx.Procs.InsertProcQ(ctx.Procs.Ready(), receiver)
	}
	return kconst.Ok
}

func (ctx *Context) isInDeviceLists(h klist.Handle) bool {
	for l := range ctx.extBlocked {
		for d := range ctx.extBlocked[l] {
			if ctx.Procs.IsInList(&ctx.extBlocked[l][d], h) {
				return true
			}
		}
	}
	for sel := range ctx.termBlocked {
		for d := range ctx.termBlocked[sel] {
			if ctx.Procs.IsInList(&ctx.termBlocked[sel][d], h) {
				return true
			}
		}
	}
	return false
}

// Receive implements the original kernel's receiveMessage for a single
// attempt: it pops a matching message from self's inbox if one is present.
// If none is, it reports blocked=true and the caller (the nucleus's main
// dispatch loop) is responsible for dropping self from "current" and
// calling Schedule — exactly as the original's receiveMessage sets
// current_process = NULL and calls schedule() itself, except the state
// mutation is left to the caller here since Context has no notion of "the
// currently executing Go stack frame" to suspend.
func (ctx *Context) Receive(self klist.Handle, senderFilter int32) (payload uint32, senderPID int32, blocked bool) {
	inbox := ctx.Procs.Inbox(self)
	h := ctx.Msgs.PopMessage(inbox, senderFilter)
	if h == klist.None {
		return 0, 0, true
	}
	m := *ctx.Msgs.At(h)
	ctx.Msgs.Free(h)
	return m.Payload, m.Sender, false
}

// SetCurrent overrides the running-process handle that Schedule records,
// which Send uses to tell "the receiver is the running process" apart from
// "the receiver is ready but not running yet" the same way the original's
// receiver == current_process check does. Only the driver loop (or a test
// standing in for it) should call it.
func (ctx *Context) SetCurrent(h klist.Handle) { ctx.current = h }

// Current returns the handle Schedule last dispatched.
func (ctx *Context) Current() klist.Handle { return ctx.current }
