package lzma

import "io"

// window is the circular dictionary. Bytes are flushed to out whenever the
// buffer wraps and once more at the end of decoding.
type window struct {
	buf       []byte
	pos       int
	streamPos int
	out       io.ByteWriter
	err       error
}

func newWindow(size int, out io.ByteWriter) *window {
	return &window{buf: make([]byte, size), out: out}
}

// flush writes pending bytes and wraps pos at the end of the buffer. After a
// write error further output is dropped but pos still wraps.
func (w *window) flush() {
	if w.err == nil {
		for _, b := range w.buf[w.streamPos:w.pos] {
			if err := w.out.WriteByte(b); err != nil {
				w.err = err
				break
			}
		}
	}
	if w.pos >= len(w.buf) {
		w.pos = 0
	}
	w.streamPos = w.pos
}

func (w *window) putByte(b byte) {
	w.buf[w.pos] = b
	w.pos++
	if w.pos >= len(w.buf) {
		w.flush()
	}
}

// getByte returns the byte dist+1 positions back.
func (w *window) getByte(dist uint32) byte {
	p := w.pos - int(dist) - 1
	if p < 0 {
		p += len(w.buf)
	}
	return w.buf[p]
}

func (w *window) copyBlock(dist uint32, n int) {
	p := w.pos - int(dist) - 1
	if p < 0 {
		p += len(w.buf)
	}
	for ; n > 0 && w.err == nil; n-- {
		if p >= len(w.buf) {
			p = 0
		}
		w.buf[w.pos] = w.buf[p]
		w.pos++
		p++
		if w.pos >= len(w.buf) {
			w.flush()
		}
	}
}
