/*
 * pandos - Deterministic CPU simulator for kernel tests.
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

package cpustate

import "fmt"

// tlbEntry is one slot of the simulated TLB.
type tlbEntry struct {
	entryHi, entryLo uint32
	valid            bool
}

// Sim is a deterministic, single-threaded CPU implementation used by the
// kernel's own tests and by the pager/scheduler test suites. It has no
// relation to real time: SetTimer/TimerRemaining just record a value for
// the caller to inspect, and a real build substitutes a different CPU
// wired to a uMPS3 binding or to internal/clock's ticker-driven interval
// timer.
type Sim struct {
	state    State
	tlb      []tlbEntry
	probeAt  int    // last index found by TLBProbe, -1 if none
	entryLo  uint32 // staged by SetEntryLo, consumed by the next TLB write
	timer    uint32
	halted   bool
	waiting  bool
	panicMsg string
	rng      uint32 // simple LCG seed for TLBWriteRandom
}

// NewSim returns a Sim with an n-entry TLB, all initially invalid.
func NewSim(tlbSize int) *Sim {
	return &Sim{tlb: make([]tlbEntry, tlbSize), probeAt: -1, rng: 1}
}

func (s *Sim) State() *State {
	st := s.state
	return &st
}

func (s *Sim) LoadState(st *State) {
	s.state = *st
	s.waiting = false
}

func (s *Sim) LoadContext(sp, status, pc uint32) {
	s.state.Entry[29] = sp // $sp
	s.state.Status = status
	s.state.PC = pc
	s.waiting = false
}

func (s *Sim) SetStatus(status uint32) { s.state.Status = status }
func (s *Sim) Status() uint32          { return s.state.Status }

func (s *Sim) SetTimer(us uint32)      { s.timer = us }
func (s *Sim) TimerRemaining() uint32  { return s.timer }

func (s *Sim) Cause() uint32 { return s.state.Cause }

// SetCause is a test-only helper letting a kernel test drive a specific
// exception without a real trap occurring.
func (s *Sim) SetCause(cause uint32) { s.state.Cause = cause }

func (s *Sim) EntryHi() uint32          { return s.state.EntryHI }
func (s *Sim) SetEntryHi(entryHi uint32) { s.state.EntryHI = entryHi }

func (s *Sim) SetEntryLo(entryLo uint32) { s.entryLo = entryLo }

func (s *Sim) TLBProbe() (uint32, bool) {
	for i, e := range s.tlb {
		if e.valid && e.entryHi == s.state.EntryHI {
			s.probeAt = i
			return uint32(i), true
		}
	}
	s.probeAt = -1
	return 0, false
}

func (s *Sim) TLBWriteIndexed() {
	if s.probeAt < 0 {
		panic("cpustate: TLBWriteIndexed with no prior successful TLBProbe")
	}
	s.tlb[s.probeAt] = tlbEntry{entryHi: s.state.EntryHI, entryLo: s.entryLo, valid: true}
}

func (s *Sim) TLBWriteRandom() {
	s.rng = s.rng*1664525 + 1013904223
	idx := int(s.rng) % len(s.tlb)
	if idx < 0 {
		idx += len(s.tlb)
	}
	s.tlb[idx] = tlbEntry{entryHi: s.state.EntryHI, entryLo: s.entryLo, valid: true}
}

func (s *Sim) Halt() { s.halted = true }
func (s *Sim) Wait() { s.waiting = true }

func (s *Sim) Panic(reason string) {
	s.panicMsg = reason
	s.halted = true
	panic(fmt.Sprintf("cpustate: panic: %s", reason))
}

// Halted reports whether Halt or Panic has been called.
func (s *Sim) Halted() bool { return s.halted }

// Waiting reports whether Wait is the last idle primitive invoked; cleared
// the next time LoadState or LoadContext dispatches a process.
func (s *Sim) Waiting() bool { return s.waiting }
