// Package rw holds small io helpers shared by the PDF writer and the HTTP
// access log.
package rw

import "io"

// CountWriter counts the bytes that reach the wrapped writer.
type CountWriter struct {
	w io.Writer
	n int64
}

func NewCountWriter(w io.Writer) *CountWriter {
	return &CountWriter{w: w}
}

func (cw *CountWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n) // Write may be called many times
	return n, err
}

func (cw *CountWriter) BytesWritten() int64 {
	return cw.n
}
