package vfp

import (
	"bytes"

	"golang.org/x/net/html"
)

// ESIInclude is one <esi:include src="..."/> found while tokenizing a
// body. ESI records each one in Includes and drops the tag from its
// output; nothing in the engine fetches src or splices a result in.
type ESIInclude struct {
	Src string
}

// ESI tokenizes <esi:include> elements out of a streamed body without
// building a full parse tree, the same pattern golang.org/x/net/html's
// own Tokenizer is meant for. It supersedes every other transform
// (§4.8 step 7) because ESI composition happens after decompression.
type ESI struct {
	buf      bytes.Buffer
	Includes []ESIInclude
}

func NewESI() *ESI {
	return &ESI{}
}

func (e *ESI) Start() error {
	e.buf.Reset()
	e.Includes = nil
	return nil
}

func (e *ESI) Step(dst *[]byte, src []byte) (int, error) {
	e.buf.Write(src)
	return len(src), nil
}

func (e *ESI) End(dst *[]byte) error {
	z := html.NewTokenizer(bytes.NewReader(e.buf.Bytes()))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			tok := z.Token()
			if tok.Data == "esi:include" {
				for _, attr := range tok.Attr {
					if attr.Key == "src" {
						e.Includes = append(e.Includes, ESIInclude{Src: attr.Val})
					}
				}
				continue
			}
		}
		*dst = append(*dst, z.Raw()...)
	}
	return nil
}
