package vfp

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// TestGzip verifies that a backend body already marked
// Content-Encoding: gzip is in fact valid gzip, without altering the
// bytes that reach storage or the client — chosen when is_gzip is true
// but neither do_gzip nor do_gunzip apply (§4.8 step 7).
type TestGzip struct {
	compressed bytes.Buffer
}

func NewTestGzip() *TestGzip {
	return &TestGzip{}
}

func (t *TestGzip) Start() error {
	t.compressed.Reset()
	return nil
}

func (t *TestGzip) Step(dst *[]byte, src []byte) (int, error) {
	t.compressed.Write(src)
	*dst = append(*dst, src...)
	return len(src), nil
}

func (t *TestGzip) End(dst *[]byte) error {
	zr, err := gzip.NewReader(bytes.NewReader(t.compressed.Bytes()))
	if err != nil {
		return err
	}
	defer zr.Close()
	_, err = io.Copy(io.Discard, zr)
	return err
}
