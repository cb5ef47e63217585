package ssi

/*
 * pandos - Tests for the System Service Interface dispatch loop.
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
	"github.com/rgriswold/pandos/internal/kernel"
	"github.com/rgriswold/pandos/internal/klist"
	"github.com/rgriswold/pandos/internal/msg"
	"github.com/rgriswold/pandos/internal/pcb"
)

type recordingIssuer struct {
	line, dev  int
	write      bool
	cmd0, cmd1 uint32
	calls      int
}

func (r *recordingIssuer) Issue(line, dev int, write bool, cmd0, cmd1 uint32) {
	r.line, r.dev, r.write, r.cmd0, r.cmd1 = line, dev, write, cmd0, cmd1
	r.calls++
}

func newTestServer(n int) (*kernel.Context, *Server) {
	ctx := kernel.NewContext(cpustate.NewSim(8), pcb.NewPool(n), msg.NewPool(n))
	srv := NewServer(ctx, &recordingIssuer{})
	return ctx, srv
}

func TestCreateProcessServiceSpawnsChild(t *testing.T) {
	ctx, srv := newTestServer(4)
	caller := ctx.CreateProcess(klist.None, cpustate.State{}, nil)

	reply, ok := srv.Dispatch(caller, Request{Service: kconst.CreateProcess, NewState: &cpustate.State{}})
	if !ok {
		t.Fatal("CreateProcess service did not reply immediately")
	}
	if reply <= 0 {
		t.Errorf("CreateProcess service reply got: %d expected a positive PID", reply)
	}
	if ctx.ProcessCount() != 3 { // SSI + caller + new child
		t.Errorf("ProcessCount got: %d expected: 3", ctx.ProcessCount())
	}
}

func TestCreateProcessServiceExhaustionReportsNegOne(t *testing.T) {
	_, srv := newTestServer(1) // pool holds only the SSI itself
	caller := klist.None

	reply, ok := srv.Dispatch(caller, Request{Service: kconst.CreateProcess, NewState: &cpustate.State{}})
	if !ok {
		t.Fatal("CreateProcess service did not reply immediately")
	}
	if reply != -1 {
		t.Errorf("CreateProcess service on exhausted pool got: %d expected: -1", reply)
	}
}

func TestTermProcessServiceTerminatesCaller(t *testing.T) {
	ctx, srv := newTestServer(4)
	caller := ctx.CreateProcess(klist.None, cpustate.State{}, nil)

	_, ok := srv.Dispatch(caller, Request{Service: kconst.TermProcess, Terminee: klist.None})
	if !ok {
		t.Fatal("TermProcess service did not reply immediately")
	}
	if !ctx.Procs.IsInPCBFreePool(caller) {
		t.Error("TermProcess with no Terminee did not terminate the caller")
	}
}

func TestDoIOServiceBlocksCallerAndDoesNotReplyYet(t *testing.T) {
	ctx, srv := newTestServer(4)
	caller := ctx.CreateProcess(klist.None, cpustate.State{}, nil)
	issuer := srv.Issue.(*recordingIssuer)

	_, ok := srv.Dispatch(caller, Request{Service: kconst.DoIO, Line: 3, Dev: 0, Cmd0: 7})
	if ok {
		t.Error("DoIO service replied immediately; it should wait for the device interrupt")
	}
	if issuer.calls != 1 || issuer.cmd0 != 7 {
		t.Errorf("DoIO service did not issue the command, got calls=%d cmd0=%d", issuer.calls, issuer.cmd0)
	}

	woken := ctx.HandleDeviceInterrupt(3, 0, kernel.DeviceResult(1))
	if woken != caller {
		t.Errorf("device interrupt woke %v, expected the blocked caller %v", woken, caller)
	}
}

func TestClockWaitServiceBlocksCaller(t *testing.T) {
	ctx, srv := newTestServer(4)
	caller := ctx.CreateProcess(klist.None, cpustate.State{}, nil)

	_, ok := srv.Dispatch(caller, Request{Service: kconst.ClockWait})
	if ok {
		t.Error("ClockWait service replied immediately; it should block until the next pseudo-clock tick")
	}
	if ctx.WaitingCount() != 1 {
		t.Errorf("WaitingCount got: %d expected: 1", ctx.WaitingCount())
	}

	ctx.HandleIntervalTimer()
	if ctx.WaitingCount() != 0 {
		t.Error("HandleIntervalTimer did not release the ClockWait caller")
	}
}

func TestGetProcessIDServiceReturnsCallerPID(t *testing.T) {
	ctx, srv := newTestServer(4)
	caller := ctx.CreateProcess(klist.None, cpustate.State{}, nil)

	reply, ok := srv.Dispatch(caller, Request{Service: kconst.GetProcessID})
	if !ok {
		t.Fatal("GetProcessID service did not reply immediately")
	}
	if reply != int32(ctx.Procs.At(caller).PID) {
		t.Errorf("GetProcessID reply got: %d expected: %d", reply, ctx.Procs.At(caller).PID)
	}
}
