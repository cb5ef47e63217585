/*
 * pandos - Nucleus: SYSCALL trap dispatch.
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
	"github.com/rgriswold/pandos/internal/cpustate"
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/klist"
	"github.com/rgriswold/pandos/internal/pcb"
)

// SyscallArgs carries the typed arguments a SYSCALL trap needs for the
// service numbers Syscall dispatches; a Go struct stands in for the
// original's general-purpose-register argument words the same way
// ssi.Request does for the SSI's mailbox. Fields irrelevant to the
// requested service are ignored.
type SyscallArgs struct {
	Dest  klist.Handle // SENDMESSAGE: who to send Value to
	Value uint32       // SENDMESSAGE: the payload word

	SenderID int32 // RECEIVEMESSAGE: sender to filter for, kconst.AnyMessage for any

	State   cpustate.State // CREATEPROCESS: the new process's initial state
	Support pcb.Support    // CREATEPROCESS: its support structure, if any

	Target klist.Handle // TERMPROCESS: who to terminate; klist.None means self
}

// Syscall is the nucleus's top-level SYSCALL trap entry point, ported from
// phase2/syscall.c's syscallHandler(). It dispatches only the two services
// the original kernel itself implements in kernel mode — SENDMESSAGE and
// RECEIVEMESSAGE — plus CREATEPROCESS and TERMPROCESS, which this port
// exposes as direct Context methods rather than requiring every caller to
// round-trip through the SSI's mailbox (see DESIGN.md). Every other
// service number (DOIO, GETTIME, CLOCKWAIT, GETSUPPORTPTR, GETPROCESSID,
// ENDIO) is SSI-only: Syscall does not service it and returns MsgNoGood,
// the same way the original hands SYS3 and up off to the SSI instead of
// servicing them itself.
//
// blocked reports whether self must be dropped from "current" and the
// scheduler re-run, mirroring Receive's own blocked contract; it is only
// ever true for RECEIVEMESSAGE.
func (ctx *Context) Syscall(self klist.Handle, number int32, args SyscallArgs) (result int32, blocked bool) {
	switch number {
	case kconst.SendMessage:
		return ctx.Send(self, args.Dest, args.Value), false

	case kconst.ReceiveMessage:
		payload, _, blk := ctx.Receive(self, args.SenderID)
		return int32(payload), blk

	case kconst.CreateProcess:
		h := ctx.CreateProcess(self, args.State, args.Support)
		if h == klist.None {
			return -1, false
		}
		return int32(ctx.Procs.At(h).PID), false

	case kconst.TermProcess:
		target := args.Target
		if target == klist.None {
			target = self
		}
		ctx.Terminate(target)
		return 0, false

	default:
		return int32(kconst.MsgNoGood), false
	}
}
