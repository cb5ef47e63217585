/*
 * pandos - Nucleus: exception classification and pass-up-or-die.
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
)

// ExceptionKind classifies a Cause register value the way exceptionHandler
// does: which of the four handler paths should run.
type ExceptionKind int

const (
	ExcInterrupt ExceptionKind = iota
	ExcTLB
	ExcSyscall
	ExcTrap
)

// Classify decodes cause the way GETEXECCODE/CAUSESHIFT does in the
// original, returning which handler path it belongs on.
func Classify(cause uint32) ExceptionKind {
	code := (cause & kconst.GetExecCode) >> kconst.CauseShift
	switch {
	case code == 0:
		return ExcInterrupt
	case code == kconst.ExcTLBInvLoad || code == kconst.ExcTLBInvStore || code == kconst.ExcTLBModified:
		return ExcTLB
	case code == kconst.ExcSyscall:
		return ExcSyscall
	default:
		return ExcTrap
	}
}

// Pass-up-or-die context indices, matching PGFAULTEXCEPT/GENERALEXCEPT.
const (
	IndexTLB     = 0
	IndexGeneral = 1
)

// SupportContext is the narrow interface a support-level descriptor must
// satisfy for PassUpOrDie to deliver an exception to it. pcb.Support is
// typed as any to avoid an import cycle; the support package's concrete
// descriptor type implements this interface, and PassUpOrDie recovers it
// with a type assertion rather than an import.
type SupportContext interface {
	SaveExceptionState(index int, st *cpustate.State)
	ExceptionContext(index int) (stackPtr, status, pc uint32)
}

// PassUpOrDie implements the original kernel's eponymous routine: if self
// has a support structure, the current exception state is copied into its
// index'th exception context and the support level's saved stack
// pointer/status/PC is loaded; otherwise self (and its entire subtree) is
// terminated and the scheduler picks the next process.
func (ctx *Context) PassUpOrDie(self klist.Handle, index int) {
	p := ctx.Procs.At(self)
	sc, ok := p.Support.(SupportContext)
	if !ok || sc == nil {
		ctx.current = klist.None
		ctx.Terminate(self)
		ctx.Schedule()
		return
	}
	sc.SaveExceptionState(index, ctx.CPU.State())
	sp, status, pc := sc.ExceptionContext(index)
	ctx.CPU.LoadContext(sp, status, pc)
}
