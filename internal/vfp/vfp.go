// Package vfp implements the body transform pipeline elements of §4.8:
// identity, gzip, gunzip, test-gzip (verify only), and ESI. Each type
// satisfies the VFP interface (Start/Step/End) by structural typing, so
// this package has no dependency on the engine package.
package vfp

// Identity passes bytes through unchanged; the default when no
// encoding transform or ESI processing applies.
type Identity struct{}

func (Identity) Start() error { return nil }

func (Identity) Step(dst *[]byte, src []byte) (int, error) {
	*dst = append(*dst, src...)
	return len(src), nil
}

func (Identity) End(dst *[]byte) error { return nil }
