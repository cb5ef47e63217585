/*
 * pandos - Support-level descriptor: per-U-proc state living above the
 * nucleus (page table, pass-up exception contexts, ASID).
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

// Package support implements the per-process support-level descriptor: the
// page table and the two saved pass-up-or-die exception contexts (TLB and
// general), plus the SST, whose Dispatch serves the four SST services
// (GETTOD, TERMINATE, WRITEPRINTER, WRITETERMINAL) from an already-decoded
// SSTRequest. Nothing in this package decodes a general exception or a
// support-level syscall into an SSTRequest.
//
// A Descriptor implements kernel.SupportContext, so the nucleus's
// PassUpOrDie can deliver an exception to it without importing this
// package.
package support

import (
	"github.com/rgriswold/pandos/internal/cpustate"
	"github.com/rgriswold/pandos/internal/kconst"
)

// PTE is one page table entry: a U-proc's page table is a fixed array of
// these, indexed by virtual page number.
type PTE struct {
	Valid bool
	Dirty bool
	Frame int // index into the pager's frame pool; meaningless if !Valid
}

// ExceptionContext is where the nucleus's PassUpOrDie deposits an
// exception's saved state, and the stack pointer/status/PC the support
// level resumes at — the Go equivalent of the original's context_t pair.
type ExceptionContext struct {
	StackPtr, Status, PC uint32
	Saved                cpustate.State
}

// Descriptor is one U-proc's complete support-level state.
type Descriptor struct {
	ASID       int
	PageTable  [kconst.MaxPages]PTE
	ExcContext [2]ExceptionContext // [kernel.IndexTLB], [kernel.IndexGeneral]
}

// NewDescriptor returns a Descriptor for the given ASID with an empty page
// table.
func NewDescriptor(asid int) *Descriptor {
	return &Descriptor{ASID: asid}
}

// SaveExceptionState implements kernel.SupportContext.
func (d *Descriptor) SaveExceptionState(index int, st *cpustate.State) {
	d.ExcContext[index].Saved = *st
}

// ExceptionContext implements kernel.SupportContext.
func (d *Descriptor) ExceptionContext(index int) (stackPtr, status, pc uint32) {
	c := d.ExcContext[index]
	return c.StackPtr, c.Status, c.PC
}

// SetHandler records where LDCXT should resume for pass-ups to index,
// called once at U-proc creation for both the TLB and general handlers.
func (d *Descriptor) SetHandler(index int, stackPtr, status, pc uint32) {
	d.ExcContext[index].StackPtr = stackPtr
	d.ExcContext[index].Status = status
	d.ExcContext[index].PC = pc
}
