/*
 * pandos - Interactive console.
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

// Package console implements the interactive monitor a developer attaches
// to a running Machine: step the scheduler, inspect process/queue state,
// and inject SEND/terminal traffic by hand. It is the liner-based
// line-editing REPL the teacher's command/reader package wires up for its
// own emulator, adapted from S/370 device attach/set/show commands to
// PandOS's process and queue inspection commands.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/rgriswold/pandos/internal/bootstrap"
	"github.com/rgriswold/pandos/internal/klist"
)

var commands = []string{"status", "procs", "step", "interrupt", "tick", "terminate", "send", "type", "help", "quit"}

// Run starts the console's prompt loop against m, returning once the user
// quits or aborts with Ctrl-D/Ctrl-C.
func Run(m *bootstrap.Machine) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		var out []string
		for _, c := range commands {
			if strings.HasPrefix(c, partial) {
				out = append(out, c)
			}
		}
		return out
	})

	fmt.Println("pandos console - type \"help\" for commands")
	for {
		text, err := line.Prompt("pandos> ")
		if err == nil {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			line.AppendHistory(text)
			if quit := dispatch(m, text); quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("console: error reading line", "error", err)
		return
	}
}

// dispatch runs one command line against m and reports whether the console
// should exit.
func dispatch(m *bootstrap.Machine, text string) (quit bool) {
	fields := strings.Fields(text)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true

	case "help":
		fmt.Println("status              summarize the machine")
		fmt.Println("procs               list every allocated process and its PID")
		fmt.Println("step                run one Schedule/dispatch cycle")
		fmt.Println("interrupt           run one HandleInterrupt pass over the device bank")
		fmt.Println("tick                deliver one pending pseudo-clock pulse, if any")
		fmt.Println("terminate <handle>  terminate the given process handle")
		fmt.Println("send <to> <value>   SEND value (uint32) to a process handle")
		fmt.Println("type <ch>           queue ch as simulated terminal input")
		fmt.Println("quit                leave the console")

	case "status":
		fmt.Println(m.Summary())

	case "procs":
		printProcs(m)

	case "step":
		m.Ctx.Schedule()
		cur := m.Ctx.Current()
		fmt.Printf("dispatched handle=%d\n", cur)

	case "interrupt":
		h := m.Interrupt(m.CPU.State().Status)
		fmt.Printf("dispatched handle=%d\n", h)

	case "tick":
		if m.Tick() {
			fmt.Println("pseudo-clock pulse delivered")
		} else {
			fmt.Println("no pulse pending")
		}

	case "terminate":
		h, err := parseHandle(args)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		m.Ctx.Terminate(h)

	case "send":
		if len(args) != 2 {
			fmt.Println("usage: send <handle> <value>")
			return false
		}
		to, err := parseHandle(args[:1])
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		reply := m.Ctx.Send(klist.None, to, uint32(v))
		fmt.Printf("send result=%d\n", reply)

	case "type":
		if len(args) != 1 || len(args[0]) != 1 {
			fmt.Println("usage: type <single character>")
			return false
		}
		m.Term.Type(args[0][0])

	default:
		fmt.Printf("unknown command %q, try \"help\"\n", cmd)
	}
	return false
}

func parseHandle(args []string) (klist.Handle, error) {
	if len(args) != 1 {
		return klist.None, fmt.Errorf("expected a process handle")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return klist.None, err
	}
	return klist.Handle(n), nil
}

func printProcs(m *bootstrap.Machine) {
	var handles []int
	for _, u := range m.UProcs {
		handles = append(handles, int(u.Handle))
	}
	handles = append(handles, int(m.SSI.Self))
	sort.Ints(handles)
	for _, h := range handles {
		handle := klist.Handle(h)
		if m.Ctx.Procs.IsInPCBFreePool(handle) {
			continue
		}
		pcb := m.Ctx.Procs.At(handle)
		fmt.Printf("handle=%d pid=%d\n", handle, pcb.PID)
	}
}
