package support

/*
 * pandos - Tests for the Support Service Technician dispatch loop.
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
	"github.com/rgriswold/pandos/internal/ssi"
)

// noopIssuer stands in for the SSI's hardware surface; these tests never
// exercise DOIO.
type noopIssuer struct{}

func (noopIssuer) Issue(line, dev int, write bool, cmd0, cmd1 uint32) {}

func newTestSST(t *testing.T) (*kernel.Context, *SST, *int32) {
	t.Helper()
	ctx := kernel.NewContext(cpustate.NewSim(8), pcb.NewPool(4), msg.NewPool(4))
	server := ssi.NewServer(ctx, noopIssuer{})
	var lastPrinted int32
	printer := func(ch byte) int32 { lastPrinted = int32(ch); return 1 }
	terminal := func(ch byte) int32 { return 1 }
	now := func() uint64 { return 123456 }
	sst := NewSST(ctx, server, 1, now, printer, terminal)
	return ctx, sst, &lastPrinted
}

func TestGetTODReturnsNow(t *testing.T) {
	_, sst, _ := newTestSST(t)
	if got := sst.Dispatch(klist.None, SSTRequest{Service: kconst.GetTOD}); got != 123456 {
		t.Errorf("GetTOD got: %d expected: 123456", got)
	}
}

func TestWritePrinterInvokesInjectedWriter(t *testing.T) {
	_, sst, last := newTestSST(t)
	reply := sst.Dispatch(klist.None, SSTRequest{Service: kconst.WritePrinter, Char: 'Q'})
	if reply != 1 {
		t.Errorf("WritePrinter reply got: %d expected: 1", reply)
	}
	if *last != 'Q' {
		t.Errorf("WritePrinter did not forward the character, got: %d expected: %d", *last, 'Q')
	}
}

func TestTerminateServiceDestroysCaller(t *testing.T) {
	ctx, sst, _ := newTestSST(t)
	self := ctx.CreateProcess(klist.None, cpustate.State{}, nil)

	sst.Dispatch(self, SSTRequest{Service: kconst.Terminate})
	if !ctx.Procs.IsInPCBFreePool(self) {
		t.Error("Terminate service did not return the caller's PCB to the free pool")
	}
}

type fakeFrameReleaser struct {
	released []int
}

func (f *fakeFrameReleaser) ReleaseFrames(asid int) {
	f.released = append(f.released, asid)
}

func TestTerminateReleasesFramesAndSignalsTestDriver(t *testing.T) {
	ctx, sst, _ := newTestSST(t)
	self := ctx.CreateProcess(klist.None, cpustate.State{}, nil)

	frames := &fakeFrameReleaser{}
	sst.Frames = frames
	sst.ASID = 7
	done := make(chan int32, 1)
	sst.TestDone = done

	sst.Dispatch(self, SSTRequest{Service: kconst.Terminate})

	if len(frames.released) != 1 || frames.released[0] != 7 {
		t.Errorf("Terminate did not release frames for ASID 7, got: %v", frames.released)
	}
	select {
	case asid := <-done:
		if asid != 7 {
			t.Errorf("TestDone signaled asid %d, want 7", asid)
		}
	default:
		t.Error("Terminate did not signal TestDone")
	}
}
