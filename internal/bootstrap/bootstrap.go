/*
 * pandos - Boot harness: wires the nucleus, SSI, pager and support-level
 * SSTs together and launches the initial U-proc population.
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

// Package bootstrap assembles a complete Machine — nucleus, SSI, pager, one
// SST per U-proc, and the simulated terminal/printer/flash devices — the
// way the original kernel's init.c and initProc.c wire phase2 and phase3
// together before handing control to the first U-proc. Since nothing in
// this module interprets arbitrary MIPS instructions, a Machine does not
// "run" a program; instead the console front end and tests drive kernel
// operations against it (Tick, Schedule and the Context methods) one call
// at a time. This package defines no scripted scenario type.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/rgriswold/pandos/internal/clock"
	"github.com/rgriswold/pandos/internal/cpustate"
	"github.com/rgriswold/pandos/internal/devsim"
	"github.com/rgriswold/pandos/internal/kconst"
	"github.com/rgriswold/pandos/internal/kernel"
	"github.com/rgriswold/pandos/internal/klist"
	"github.com/rgriswold/pandos/internal/msg"
	"github.com/rgriswold/pandos/internal/pager"
	"github.com/rgriswold/pandos/internal/pcb"
	"github.com/rgriswold/pandos/internal/ssi"
	"github.com/rgriswold/pandos/internal/support"
)

// Config sizes the pools a Machine allocates. A zero Config is invalid;
// use DefaultConfig.
type Config struct {
	MaxProc     int
	MaxMessages int
	UProcCount  int
	Frames      int
}

// DefaultConfig mirrors the original kernel's static pool sizes.
func DefaultConfig() Config {
	return Config{
		MaxProc:     kconst.MaxProc,
		MaxMessages: kconst.MaxMessages,
		UProcCount:  kconst.UProcMax,
		Frames:      kconst.SwapPoolFrames,
	}
}

// Machine is the fully wired kernel, ready to be driven by its callers.
type Machine struct {
	CPU     cpustate.CPU
	Ctx     *kernel.Context
	SSI     *ssi.Server
	Pager   *pager.Pager
	Flash   *devsim.Flash
	Term    *devsim.Terminal
	Printer *devsim.Printer
	Bitmap  *devsim.InterruptBitmap
	Clock   *clock.Clock

	// TestDone receives a U-proc's ASID each time its SST completes
	// TERMINATE, standing in for the original kernel's global test_pcb
	// convention.
	TestDone chan int32

	UProcs []UProc
}

// UProc is one initial user process: its PCB handle and support descriptor.
type UProc struct {
	Handle klist.Handle
	Descr  *support.Descriptor
	SST    *support.SST
}

// deviceIssuer adapts a Machine's devsim devices to the ssi.Issuer
// interface the SSI dispatch loop drives.
type deviceIssuer struct {
	m *Machine
}

const (
	printerLine  = 3
	flashLine    = 4
	terminalLine = 7
)

func (d *deviceIssuer) Issue(line, dev int, write bool, cmd0, cmd1 uint32) {
	switch line {
	case flashLine:
		buf := make([]byte, kconst.PageSize)
		if cmd0 == devsim.CmdFlashWrite {
			d.m.Flash.StartWrite(int(cmd1), buf)
		} else {
			d.m.Flash.StartRead(int(cmd1), buf)
		}
	case terminalLine:
		if write {
			d.m.Term.StartTransmit(byte(cmd0))
		} else {
			d.m.Term.StartReceive()
		}
	}
}

// New assembles a Machine per cfg: a fresh nucleus, the SSI process, the
// simulated device bank, the shared pager, and cfg.UProcCount U-procs each
// with its own support descriptor and SST.
func New(cfg Config, cpu cpustate.CPU) *Machine {
	ctx := kernel.NewContext(cpu, pcb.NewPool(cfg.MaxProc), msg.NewPool(cfg.MaxMessages))

	m := &Machine{
		CPU:      cpu,
		Ctx:      ctx,
		Flash:    devsim.NewFlash(cfg.UProcCount*kconst.MaxPages, kconst.PageSize),
		Term:     devsim.NewTerminal(),
		Printer:  devsim.NewPrinter(),
		Bitmap:   devsim.NewInterruptBitmap(),
		Clock:    clock.New(),
		TestDone: make(chan int32, cfg.UProcCount),
	}
	m.SSI = ssi.NewServer(ctx, &deviceIssuer{m: m})
	m.Pager = pager.NewPager(m.Flash, cfg.Frames)

	m.Bitmap.RegisterDevice(printerLine, 0, &m.Printer.Regs)
	m.Bitmap.RegisterDevice(flashLine, 0, &m.Flash.Regs)
	m.Bitmap.RegisterTerminal(0, m.Term)

	boot := time.Now()
	for i := 0; i < cfg.UProcCount; i++ {
		asid := i + 1
		descr := support.NewDescriptor(asid)
		var st cpustate.State
		st.Status = kconst.StatusUserOn | kconst.StatusIEPrev | kconst.StatusIM
		h := ctx.CreateProcess(m.SSI.Self, st, descr)

		now := func() uint64 { return uint64(time.Since(boot).Microseconds()) }
		printer := func(ch byte) int32 { m.Printer.StartPrint(ch); return int32(m.Printer.ReadStatus()) }
		terminal := func(ch byte) int32 { m.Term.StartTransmit(ch); return int32(m.Term.Transmit.ReadStatus()) }
		sst := support.NewSST(ctx, m.SSI, asid, now, printer, terminal)
		sst.Frames = m.Pager
		sst.TestDone = m.TestDone

		m.UProcs = append(m.UProcs, UProc{Handle: h, Descr: descr, SST: sst})
	}

	return m
}

// Interrupt runs one HandleInterrupt pass against the machine's device
// bank, using the CPU's status word at the time the interrupt was raised
// to decide whether interrupts were enabled.
func (m *Machine) Interrupt(prevStatus uint32) klist.Handle {
	return m.Ctx.HandleInterrupt(prevStatus, m.Bitmap, m.Bitmap)
}

// Tick drains and services one pending pseudo-clock pulse, if any, and
// reports whether it found one.
func (m *Machine) Tick() bool {
	select {
	case <-m.Clock.C:
		m.Ctx.HandleIntervalTimer()
		return true
	default:
		return false
	}
}

// Close shuts down the machine's background clock goroutine. Callers that
// construct a Machine with New should defer Close once they are done with
// it.
func (m *Machine) Close() {
	m.Clock.Shutdown()
}

// Summary returns a one-line human-readable snapshot, used by the console's
// "status" command.
func (m *Machine) Summary() string {
	return fmt.Sprintf("processes=%d waiting=%d ready=%t",
		m.Ctx.ProcessCount(), m.Ctx.WaitingCount(), !m.Ctx.Procs.EmptyProcQ(m.Ctx.Procs.Ready()))
}
