/*
 * pandos - System Service Interface: the privileged process every other
 * process routes CREATEPROCESS/TERMPROCESS/DOIO/GETTIME/CLOCKWAIT/
 * GETSUPPORTPTR/GETPROCESSID requests through.
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

// Package ssi implements the System Service Interface: a single
// always-running process (the first process NewServer creates, with no
// parent) that every
// other process sends a Request to instead of calling a kernel primitive
// directly. Routing every privileged operation through one server process
// is what lets the nucleus keep CreateProcess/Terminate/device access
// restricted to kernel mode while still letting ordinary processes ask for
// them.
//
// A Request's fields stand in for the original kernel's
// ssi_payload_t, passed to Dispatch as a Go struct value rather than
// marshaled into a single machine word: the original's payload was itself
// just a pointer to such a record in the simulated address space.
package ssi

import (
	"github.com/rgriswold/pandos/internal/cpustate"
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/kernel"
	"github.com/rgriswold/pandos/internal/klist"
	"github.com/rgriswold/pandos/internal/pcb"
)

// Request is one service call a process sends to the SSI's mailbox.
type Request struct {
	Service int32

	// CreateProcess
	NewState *cpustate.State
	Support  pcb.Support

	// TermProcess; Terminee == klist.None means "terminate the caller".
	Terminee klist.Handle

	// DoIO
	Line, Dev  int
	Cmd0, Cmd1 uint32
	Write      bool // for a terminal device, which half Line/Dev addresses

	// ClockWait has no fields: it always just blocks the caller.
}

// Issuer writes a command to a device's register pair, the SSI's only
// direct hardware access. The bootstrap harness supplies an implementation
// backed by devsim registers; a kernel test supplies a fake that just
// records what was written.
type Issuer interface {
	Issue(line, dev int, write bool, cmd0, cmd1 uint32)
}

// Server is the SSI process's state: which PCB it runs as, and the device
// command surface it is allowed to reach.
type Server struct {
	ctx   *kernel.Context
	Self  klist.Handle
	Issue Issuer
}

// NewServer creates the SSI's own PCB (parentless, kernel-mode, no support
// structure) and returns a Server ready to dispatch requests sent to it.
func NewServer(ctx *kernel.Context, issue Issuer) *Server {
	self := ctx.CreateProcess(klist.None, cpustate.State{}, nil)
	ctx.SSI = self
	return &Server{ctx: ctx, Self: self, Issue: issue}
}

// Dispatch performs the requested operation and reports whether the SSI
// should reply immediately to sender. Per the original kernel's dispatch
// loop, every service except DOIO and CLOCKWAIT replies right away. DOIO's
// caller is instead woken directly by the device interrupt that completes
// it (kernel.Context.HandleDeviceInterrupt/HandleTerminalInterrupt), and
// CLOCKWAIT's by the pseudo-clock interrupt (HandleIntervalTimer), so both
// return ok=false and reply is meaningless.
func (s *Server) Dispatch(sender klist.Handle, req Request) (reply int32, ok bool) {
	switch req.Service {
	case kconst.CreateProcess:
		var st cpustate.State
		if req.NewState != nil {
			st = *req.NewState
		}
		h := s.ctx.CreateProcess(sender, st, req.Support)
		if h == klist.None {
			return -1, true
		}
		return int32(s.ctx.Procs.At(h).PID), true

	case kconst.TermProcess:
		target := req.Terminee
		if target == klist.None {
			target = sender
		}
		s.ctx.Terminate(target)
		return 0, true

	case kconst.DoIO:
		s.Issue.Issue(req.Line, req.Dev, req.Write, req.Cmd0, req.Cmd1)
		if isTerminal(req.Line) {
			s.ctx.BlockOnTerminal(req.Dev, req.Write, sender)
		} else {
			s.ctx.BlockOnDevice(req.Line, req.Dev, sender)
		}
		return 0, false

	case kconst.GetTime:
		return 0, true // caller reads wall-clock time itself; SSI only acks

	case kconst.ClockWait:
		s.ctx.BlockOnClock(sender)
		return 0, false

	case kconst.GetSupportPtr:
		return 0, true // the reply does not carry the support pointer

	case kconst.GetProcessID:
		if target := req.Terminee; target != klist.None {
			return int32(s.ctx.Procs.At(target).PID), true
		}
		return int32(s.ctx.Procs.At(sender).PID), true

	case kconst.EndIO:
		return 0, true

	default:
		return int32(kconst.MsgNoGood), true
	}
}

// terminalLine is the interrupt line uMPS3 reserves for terminal devices;
// DOIO requests addressed to it carry Write to pick transmit vs receive.
const terminalLine = 7

func isTerminal(line int) bool { return line == terminalLine }
