/*
 * pandos - Support Service Technician: the per-U-proc server handling
 * GETTOD, TERMINATE, WRITEPRINTER and WRITETERMINAL.
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
 * The SST writes ch to a simulated printer or terminal through the
 * WriteChar functions it was constructed with, issuing the command
 * synchronously (devsim's terminal/printer devices complete with no
 * latency) rather than relaying through the SSI's DOIO path the way a
 * write to a real asynchronous device would — see DESIGN.md.
 *
 * TERMINATE releases the caller's swap-pool frames, signals the test
 * driver, and asks the SSI to terminate the caller's subtree, mirroring
 * phase3/sst.c's terminate(asid).
 */

package support

import (
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/kernel"
	"github.com/rgriswold/pandos/internal/klist"
	"github.com/rgriswold/pandos/internal/ssi"
)

// SSTRequest is one support-level service call forwarded up from a U-proc's
// general-exception pass-up.
type SSTRequest struct {
	Service int32
	Char    byte
}

// WriteChar issues ch to a device and reports the resulting status word, or
// a negative value on failure, matching the convention the original's
// SYS11/SYS12 services return to the caller.
type WriteChar func(ch byte) int32

// TimeFunc returns the current time-of-day in the same units GETTOD
// reports, microseconds since boot.
type TimeFunc func() uint64

// FrameReleaser gives back every swap-pool frame a terminated process
// held. It is satisfied by *pager.Pager; the interface lives here instead
// of a direct import because pager already imports support for
// support.Descriptor/PTE, and support importing pager back would cycle.
type FrameReleaser interface {
	ReleaseFrames(asid int)
}

// SST is one U-proc's Support Service Technician.
type SST struct {
	ctx  *kernel.Context
	SSI  *ssi.Server
	ASID int

	// Frames releases this U-proc's swap-pool frames on TERMINATE; nil
	// skips the release (used by tests with no pager wired up).
	Frames FrameReleaser

	// TestDone, if non-nil, receives this U-proc's ASID once TERMINATE
	// completes — the test driver's signal, standing in for the original
	// kernel's global test_pcb convention.
	TestDone chan<- int32

	Now           TimeFunc
	WritePrinter  WriteChar
	WriteTerminal WriteChar
}

// NewSST returns an SST for the U-proc identified by asid, wired to the
// SSI server (for TERMINATE) and the given device write functions. Frames
// and TestDone are left nil; the bootstrap harness sets them once the
// pager and a test-completion channel exist.
func NewSST(ctx *kernel.Context, ssiServer *ssi.Server, asid int, now TimeFunc, printer, terminal WriteChar) *SST {
	return &SST{ctx: ctx, SSI: ssiServer, ASID: asid, Now: now, WritePrinter: printer, WriteTerminal: terminal}
}

// Dispatch performs req on behalf of self and returns the reply value.
// TERMINATE never returns to the caller, since self no longer exists once
// it completes; its reply value is unused.
func (s *SST) Dispatch(self klist.Handle, req SSTRequest) int32 {
	switch req.Service {
	case kconst.GetTOD:
		return int32(s.Now())
	case kconst.Terminate:
		if s.Frames != nil {
			s.Frames.ReleaseFrames(s.ASID)
		}
		if s.TestDone != nil {
			s.TestDone <- int32(s.ASID)
		}
		s.SSI.Dispatch(self, ssi.Request{Service: kconst.TermProcess})
		return 0
	case kconst.WritePrinter:
		return s.WritePrinter(req.Char)
	case kconst.WriteTerminal:
		return s.WriteTerminal(req.Char)
	default:
		return int32(kconst.MsgNoGood)
	}
}
