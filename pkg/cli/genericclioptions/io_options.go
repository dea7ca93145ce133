// Package genericclioptions holds option pieces shared by every CLI command.
package genericclioptions

import (
	"bytes"
	"io"
)

// IOStreams provides the standard names for iostreams. This is useful for
// embedding and for unit testing. Inconsistent and different names make it
// hard to read and review code.
type IOStreams struct {
	// In thinks of this as stdin.
	In io.Reader
	// Out thinks of this as stdout.
	Out io.Writer
	// ErrOut thinks of this as stderr.
	ErrOut io.Writer
}

// NewTestIOStreams returns a valid IOStreams and in, out, errout buffers for
// unit tests.
func NewTestIOStreams() (IOStreams, *bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	return IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}, in, out, errOut
}
