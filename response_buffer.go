package restone

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned from writes that would grow the buffer beyond its limit.
// Nothing is written in that case, not even a partial chunk.
var ErrBufferFull = errors.New("response buffer full")

var bufPool = sync.Pool{
	New: func() any { return bytes.NewBuffer(nil) },
}

// ResponseBuffer is a http.ResponseWriter that buffers status, headers and body until
// the buffer is flushed. Until then the response can be [ResponseBuffer.Reset] and
// rewritten from scratch, which is what allows handlers to return errors and have the
// error responder formulate a completely new response.
type ResponseBuffer struct {
	resp    http.ResponseWriter
	buf     *bytes.Buffer
	limit   int
	status  int
	header  http.Header
	flushed bool
}

// NewResponseWriter inits a buffered writer on top of 'resp'. A negative limit means
// the buffer grows without bound.
func NewResponseWriter(resp http.ResponseWriter, limit int) ResponseWriter {
	return newBufferResponse(resp, limit)
}

func newBufferResponse(resp http.ResponseWriter, limit int) *ResponseBuffer {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	return &ResponseBuffer{
		resp:   resp,
		buf:    buf,
		limit:  limit,
		header: make(http.Header),
	}
}

// Header implements http.ResponseWriter on the buffered headers.
func (w *ResponseBuffer) Header() http.Header {
	return w.header
}

// WriteHeader records the status code. Like the standard library only the first call
// has an effect.
func (w *ResponseBuffer) WriteHeader(status int) {
	if w.status != 0 {
		return
	}

	w.status = status
}

// Write appends p to the buffer. When a limit is configured and the write would exceed
// it, nothing is written and [ErrBufferFull] is returned.
func (w *ResponseBuffer) Write(p []byte) (int, error) {
	if w.limit >= 0 && w.buf.Len()+len(p) > w.limit {
		return 0, errors.Wrapf(ErrBufferFull, "write of %d bytes exceeds limit of %d", len(p), w.limit)
	}

	return w.buf.Write(p)
}

// Reset discards everything buffered so far: body, headers and status code. It panics
// when the response was already flushed since bytes on the wire cannot be recalled.
func (w *ResponseBuffer) Reset() {
	if w.flushed {
		panic("restone: response already flushed, cannot reset")
	}

	w.buf.Reset()
	w.status = 0
	w.header = make(http.Header)
}

// FlushError writes the buffered status, headers and body to the underlying writer. It
// may be called multiple times; headers and status go out on the first call only, later
// calls append whatever was buffered since.
func (w *ResponseBuffer) FlushError() error {
	if !w.flushed {
		dst := w.resp.Header()
		for k, v := range w.header {
			dst[k] = v
		}

		status := w.status
		if status == 0 {
			status = http.StatusOK
		}

		w.resp.WriteHeader(status)
		w.flushed = true
	}

	if w.buf.Len() > 0 {
		if _, err := w.resp.Write(w.buf.Bytes()); err != nil {
			return errors.Wrap(err, "failed to write buffered response")
		}

		w.buf.Reset()
	}

	return nil
}

// FlushBuffer is the implicit flush performed after a handler is done serving.
func (w *ResponseBuffer) FlushBuffer() error {
	return w.FlushError()
}

// Free returns the buffer to the pool. The writer must not be used afterwards.
func (w *ResponseBuffer) Free() {
	if w.buf == nil {
		return
	}

	bufPool.Put(w.buf)
	w.buf = nil
}

// Unwrap returns the underlying writer, it supports the http.ResponseController.
func (w *ResponseBuffer) Unwrap() http.ResponseWriter {
	return w.resp
}

var _ ResponseWriter = &ResponseBuffer{}
