package main

import (
	"rvcore/defs"
	"rvcore/sbi"
)

// consoleOps adapts sbi's legacy-console primitives to fd.Ops, installed
// as fds 0/1/2 (stdin/stdout/stderr) on every fresh process's leader
// thread, sitting behind a freshly forked process's first three
// descriptors the way a console special file would.
type consoleOps struct{}

// Read implements fd.Ops: one byte per call, -1 from ConsoleGetchar
// (nothing typed yet) reported as a zero-length, non-error read rather
// than blocking -- polling stdin a byte at a time is a Non-goal shell
// interaction detail, not something this kernel schedules around.
func (consoleOps) Read(buf []byte) (int, defs.Err_t) {
	if len(buf) == 0 {
		return 0, 0
	}
	c := sbi.ConsoleGetchar()
	if c < 0 {
		return 0, 0
	}
	buf[0] = byte(c)
	return 1, 0
}

// Write implements fd.Ops over sbi.Console, which already translates
// '\n' to "\r\n" for the UART.
func (consoleOps) Write(buf []byte) (int, defs.Err_t) {
	var cons sbi.Console
	n, _ := cons.Write(buf)
	return n, 0
}

func (consoleOps) Close() defs.Err_t  { return 0 }
func (consoleOps) Reopen() defs.Err_t { return 0 }
