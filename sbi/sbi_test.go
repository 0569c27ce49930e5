//go:build !riscv64

package sbi

import "testing"

func TestConsoleWritesTranslateNewlines(t *testing.T) {
	var c Console
	n, err := c.Write([]byte("hi\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	got := StubOutput()
	want := "hi\r\n"
	if string(got) != want {
		t.Fatalf("stub output = %q, want %q", got, want)
	}
}
