package vfp

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Gunzip decompresses a gzip-encoded body. FetchBody runs it when
// do_gunzip is set and the backend body is_gzip (§4.8 steps 3-4); the
// stored Object then holds the decompressed bytes. Deliver runs it over
// a gzipped stored Object for a client that did not ask for gzip
// (GUNZIP framing in PrepResp); the stored bytes stay compressed.
//
// Decompression happens on End rather than incrementally on Step:
// klauspost/compress/gzip's Reader wants a complete member to validate
// its CRC trailer, and FetchBody/Deliver bodies are small enough in
// this proxy's target deployments that buffering the compressed input
// is simpler and safer than arbitrating a pipe across two goroutines.
type Gunzip struct {
	compressed bytes.Buffer
}

func NewGunzip() *Gunzip {
	return &Gunzip{}
}

func (g *Gunzip) Start() error {
	g.compressed.Reset()
	return nil
}

func (g *Gunzip) Step(dst *[]byte, src []byte) (int, error) {
	return g.compressed.Write(src)
}

func (g *Gunzip) End(dst *[]byte) error {
	zr, err := gzip.NewReader(&g.compressed)
	if err != nil {
		return err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return err
	}
	*dst = append(*dst, out...)
	return nil
}
