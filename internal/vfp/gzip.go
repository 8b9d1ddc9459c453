package vfp

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

// Gzip compresses backend body bytes before they reach storage or the
// client, chosen when do_gzip is set and the backend sent an
// uncompressed (is_gunzip) body (§4.8 step 6).
type Gzip struct {
	buf *bytes.Buffer
	zw  *gzip.Writer
}

func NewGzip() *Gzip {
	return &Gzip{}
}

func (g *Gzip) Start() error {
	g.buf = &bytes.Buffer{}
	g.zw = gzip.NewWriter(g.buf)
	return nil
}

func (g *Gzip) Step(dst *[]byte, src []byte) (int, error) {
	n, err := g.zw.Write(src)
	if err != nil {
		return 0, err
	}
	*dst = append(*dst, g.buf.Bytes()...)
	g.buf.Reset()
	return n, nil
}

func (g *Gzip) End(dst *[]byte) error {
	if err := g.zw.Close(); err != nil {
		return err
	}
	*dst = append(*dst, g.buf.Bytes()...)
	g.buf.Reset()
	return nil
}
