package vfp

import (
	"strings"
	"testing"
)

func TestChainGunzipThenUppercase(t *testing.T) {
	in := []byte("hello from the chain")

	gz := NewGzip()
	gz.Start()
	var compressed []byte
	gz.Step(&compressed, in)
	gz.End(&compressed)

	chain := NewChain(NewGunzip(), &upperCaser{})
	if err := chain.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	var staged []byte
	if _, err := chain.Step(&staged, compressed); err != nil {
		t.Fatalf("Step: %v", err)
	}
	var out []byte
	if err := chain.End(&out); err != nil {
		t.Fatalf("End: %v", err)
	}
	if got, want := string(out), strings.ToUpper(string(in)); got != want {
		t.Fatalf("chain output = %q, want %q", got, want)
	}
}

// upperCaser buffers in Step (like Gunzip/ESI) and produces its real
// output in End, exercising Chain's buffer-then-drive-once contract.
type upperCaser struct{ buf []byte }

func (u *upperCaser) Start() error { u.buf = nil; return nil }
func (u *upperCaser) Step(dst *[]byte, src []byte) (int, error) {
	u.buf = append(u.buf, src...)
	return len(src), nil
}
func (u *upperCaser) End(dst *[]byte) error {
	*dst = append(*dst, []byte(strings.ToUpper(string(u.buf)))...)
	return nil
}
