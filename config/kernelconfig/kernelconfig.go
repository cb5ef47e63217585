/*
 * pandos - Kernel configuration file parser.
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

// Package kernelconfig reads the flat key=value configuration file that
// sizes a Machine at boot: process/message pool sizes, frame count, and
// U-proc count. The teacher's config/configparser implements a much richer
// per-device-model registration DSL (RegisterModel/RegisterSwitch), which
// fits a machine built out of attachable device models; a kernel's boot
// parameters are a handful of flat integers, so this package keeps the
// teacher's line-oriented bufio.Scanner reading style without the model
// registry on top of it — see DESIGN.md.
package kernelconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rgriswold/pandos/internal/bootstrap"
)

// Load reads path and returns a bootstrap.Config seeded from
// bootstrap.DefaultConfig, overriding any of maxproc/maxmessages/uprocs/
// frames keys present in the file. Blank lines and lines starting with '#'
// are ignored, the same comment convention the teacher's parser uses.
func Load(path string) (bootstrap.Config, error) {
	cfg := bootstrap.DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return cfg, fmt.Errorf("%s:%d: expected key=value, got %q", path, lineNo, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return cfg, fmt.Errorf("%s:%d: %s: %w", path, lineNo, key, err)
		}
		switch key {
		case "maxproc":
			cfg.MaxProc = n
		case "maxmessages":
			cfg.MaxMessages = n
		case "uprocs":
			cfg.UProcCount = n
		case "frames":
			cfg.Frames = n
		default:
			return cfg, fmt.Errorf("%s:%d: unknown key %q", path, lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
