/*
 * pandos - Register-addressable device simulation for terminal, printer,
 * and flash devices.
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

// Package devsim implements the register-level device protocol the nucleus
// and SSI drive over: each device line exposes a status, command, data0 and
// data1 register at a fixed address, terminals expose a transmit and a
// receive quadlet side by side, and a command word written to the command
// register is the signal to start an operation. Every simulated device here
// completes its operation synchronously, before the Start call returns. The kernel
// never touches a device directly; it only reads/writes these registers,
// the same narrow surface a real uMPS3 machine exposes.
package devsim

import "sync"

// Command words, shared by every device kind.
const (
	CmdACK        = 1
	CmdPrintChar  = 2
	CmdFlashRead  = 2
	CmdFlashWrite = 3
	CmdTransmit   = 2
	CmdReceive    = 2
)

// Status codes. OKCharTrans occupies the low byte of a terminal's status
// word; Ready is the whole status word for a flash or printer device.
const (
	StatusReady      = 1
	StatusOKCharTrans = 5
	StatusBusy       = 0
)

// Regs is the four-word register quadlet a single device (or, for a
// terminal, a single half of transmit/receive) exposes at its base address.
type Regs struct {
	mu      sync.Mutex
	Status  uint32
	Command uint32
	Data0   uint32
	Data1   uint32
}

// ReadStatus returns the device's current status word.
func (r *Regs) ReadStatus() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status
}

// WriteCommand writes cmd to the command register. This is the operation
// that a real machine treats as "start the device"; Flash/Terminal/Printer
// below complete the operation synchronously and set Status before returning.
func (r *Regs) WriteCommand(cmd uint32) {
	r.mu.Lock()
	r.Command = cmd
	r.mu.Unlock()
}

func (r *Regs) setStatus(s uint32) {
	r.mu.Lock()
	r.Status = s
	r.mu.Unlock()
}

// Pending reports whether the device has a completed, unacknowledged
// operation outstanding.
func (r *Regs) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status != StatusBusy
}

// Acknowledge returns the device's status word and resets it to
// StatusBusy, the same read-clears semantics a real status register has:
// reading it off is what a handler does to acknowledge the interrupt.
func (r *Regs) Acknowledge() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.Status
	r.Status = StatusBusy
	return s
}

// Terminal simulates a single terminal line: independent transmit and
// receive register quadlets, each driven by WriteCommand(CmdTransmit) /
// WriteCommand(CmdReceive). A real DOIO always targets one half; the
// interrupt handler inspects both halves each pass and services whichever
// is ready, preferring transmit (§6).
type Terminal struct {
	Transmit Regs
	Receive  Regs

	out  chan byte // bytes written out, for test observation
	in   []byte    // bytes queued to be "typed", for test injection
	inAt int
}

// NewTerminal returns a Terminal with no pending input.
func NewTerminal() *Terminal {
	return &Terminal{out: make(chan byte, 256)}
}

// Type queues b to be delivered by the next receive command.
func (t *Terminal) Type(b byte) {
	t.in = append(t.in, b)
}

// StartTransmit writes ch to Transmit.Data0, starts the operation, and
// completes it synchronously (the simulated latency is zero; real hardware
// would complete it on a later cycle and raise an interrupt then). It sets
// Transmit.Status to OKCharTrans in the low byte once done, matching what
// the interrupt handler inspects.
func (t *Terminal) StartTransmit(ch byte) {
	t.Transmit.Data0 = uint32(ch)
	t.Transmit.WriteCommand(CmdTransmit)
	t.out <- ch
	t.Transmit.setStatus(StatusOKCharTrans)
}

// StartReceive begins a receive; it completes immediately if input is
// queued via Type, leaving Receive.Status at OKCharTrans and the character
// in Receive.Data0, the same shape a real machine's interrupt would expose.
func (t *Terminal) StartReceive() {
	t.Receive.WriteCommand(CmdReceive)
	if t.inAt < len(t.in) {
		t.Receive.Data0 = uint32(t.in[t.inAt])
		t.inAt++
		t.Receive.setStatus(StatusOKCharTrans)
	}
}

// Out drains one transmitted byte for test observation, or ok=false if
// none has been written yet.
func (t *Terminal) Out() (b byte, ok bool) {
	select {
	case b := <-t.out:
		return b, true
	default:
		return 0, false
	}
}

// Printer simulates a single line printer: one register quadlet, a command
// of CmdPrintChar prints Data0 and immediately sets Status to Ready.
type Printer struct {
	Regs
	out chan byte
}

// NewPrinter returns an idle Printer.
func NewPrinter() *Printer {
	return &Printer{out: make(chan byte, 256)}
}

// StartPrint writes ch, issues the command, and completes synchronously.
func (p *Printer) StartPrint(ch byte) {
	p.Data0 = uint32(ch)
	p.WriteCommand(CmdPrintChar)
	p.out <- ch
	p.setStatus(StatusReady)
}

// Printed drains one printed byte for test observation.
func (p *Printer) Printed() (b byte, ok bool) {
	select {
	case b := <-p.out:
		return b, true
	default:
		return 0, false
	}
}

// Flash simulates one flash backing device: a fixed number of fixed-size
// blocks, addressed by a block number passed as an argument, with the
// RAM-side byte buffer passed directly; Data1 is not used (a real DOIO would
// instead point at a RAM address; the
// simulated flash operates on the buffer the pager gives it, since this
// package has no RAM of its own to address into).
type Flash struct {
	Regs
	blocks [][]byte
}

// NewFlash returns a Flash with nblocks blocks of blockSize bytes each, all
// zeroed.
func NewFlash(nblocks, blockSize int) *Flash {
	f := &Flash{blocks: make([][]byte, nblocks)}
	for i := range f.blocks {
		f.blocks[i] = make([]byte, blockSize)
	}
	return f
}

// StartRead copies block into buf and sets Status to Ready, or leaves
// Status at StatusBusy (treated by the pager as DEVICE_NOT_READY) if block
// is out of range.
func (f *Flash) StartRead(block int, buf []byte) {
	f.WriteCommand(CmdFlashRead)
	if block < 0 || block >= len(f.blocks) {
		f.setStatus(StatusBusy)
		return
	}
	copy(buf, f.blocks[block])
	f.setStatus(StatusReady)
}

// StartWrite copies buf into block and sets Status to Ready, or leaves
// Status at StatusBusy if block is out of range.
func (f *Flash) StartWrite(block int, buf []byte) {
	f.WriteCommand(CmdFlashWrite)
	if block < 0 || block >= len(f.blocks) {
		f.setStatus(StatusBusy)
		return
	}
	copy(f.blocks[block], buf)
	f.setStatus(StatusReady)
}

// terminalLine is the interrupt line uMPS3 reserves for terminal devices;
// duplicated here (rather than imported) the same way ssi and bootstrap
// each keep their own copy, since devsim has no dependency on either.
const terminalLine = 7

// InterruptBitmap tracks, per external device line and for the terminal
// line's two halves, which device numbers have a completed operation
// outstanding — the register-level equivalent of uMPS3's INTDEVBITMAP
// array. kernel.HandleInterrupt polls it through the kernel.PendingLines
// and kernel.DeviceStatus interfaces, which InterruptBitmap satisfies
// structurally; devsim does not import kernel to avoid the dependency
// running the wrong way.
type InterruptBitmap struct {
	mu      sync.Mutex
	lines   map[int]map[int]*Regs
	term    *Terminal
	termDev int
}

// NewInterruptBitmap returns an InterruptBitmap with no devices registered.
func NewInterruptBitmap() *InterruptBitmap {
	return &InterruptBitmap{lines: make(map[int]map[int]*Regs)}
}

// RegisterDevice adds dev's register quadlet on line to the bitmap.
func (b *InterruptBitmap) RegisterDevice(line, dev int, r *Regs) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lines[line] == nil {
		b.lines[line] = make(map[int]*Regs)
	}
	b.lines[line][dev] = r
}

// RegisterTerminal sets t as the terminal device numbered dev on the
// terminal line; only one terminal is modeled per bitmap, matching this
// port's single simulated terminal.
func (b *InterruptBitmap) RegisterTerminal(dev int, t *Terminal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.term = t
	b.termDev = dev
}

// Pending implements kernel.PendingLines for an external device line.
func (b *InterruptBitmap) Pending(line int) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var bits uint32
	for dev, r := range b.lines[line] {
		if r.Pending() {
			bits |= 1 << uint(dev)
		}
	}
	return bits
}

// PendingTerminal implements kernel.PendingLines for the terminal line's
// transmit and receive halves.
func (b *InterruptBitmap) PendingTerminal() (transmit, receive uint32) {
	b.mu.Lock()
	t, dev := b.term, b.termDev
	b.mu.Unlock()
	if t == nil {
		return 0, 0
	}
	if t.Transmit.Pending() {
		transmit = 1 << uint(dev)
	}
	if t.Receive.Pending() {
		receive = 1 << uint(dev)
	}
	return transmit, receive
}

// Status implements kernel.DeviceStatus: it acknowledges and returns the
// addressed device's status word, or StatusBusy if nothing is registered
// there.
func (b *InterruptBitmap) Status(line, dev int, write bool) uint32 {
	b.mu.Lock()
	t := b.term
	r := b.lines[line][dev]
	b.mu.Unlock()

	if line == terminalLine {
		if t == nil {
			return StatusBusy
		}
		if write {
			return t.Transmit.Acknowledge()
		}
		return t.Receive.Acknowledge()
	}
	if r == nil {
		return StatusBusy
	}
	return r.Acknowledge()
}
