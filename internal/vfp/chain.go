package vfp

// Step is the structural shape every VFP element in this package
// satisfies; Chain composes several into one without needing to
// import the root VFP interface it ultimately also satisfies.
type Step interface {
	Start() error
	Step(dst *[]byte, src []byte) (int, error)
	End(dst *[]byte) error
}

// Chain runs the full fetched body through each element in sequence,
// feeding one element's complete output as the next element's input.
// Gunzip and ESI buffer on Step and do their real work in End, so Chain
// buffers the incoming stream itself and only drives the elements once,
// at End: one Step over the whole input, then End.
type Chain struct {
	elems []Step
	buf   []byte
}

func NewChain(elems ...Step) *Chain {
	return &Chain{elems: elems}
}

func (c *Chain) Start() error {
	c.buf = c.buf[:0]
	for _, e := range c.elems {
		if err := e.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) Step(dst *[]byte, src []byte) (int, error) {
	c.buf = append(c.buf, src...)
	return len(src), nil
}

func (c *Chain) End(dst *[]byte) error {
	in := c.buf
	for _, e := range c.elems {
		var stepped []byte
		if _, err := e.Step(&stepped, in); err != nil {
			return err
		}
		var out []byte
		if err := e.End(&out); err != nil {
			return err
		}
		in = append(stepped, out...)
	}
	*dst = append(*dst, in...)
	return nil
}
