package middleware

import (
	"sync"
	"time"
)

type Response struct {
	Data    any
	Message string
	Code    int
	Error   error
}

type ResponseAPIDebug struct {
	Version   string    `json:"version"`
	Error     *string   `json:"error"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	RuntimeMs int64     `json:"runtimeMs"`
}

type ResponseAPI struct {
	RequestID string            `json:"requestId"`
	Data      any               `json:"data"`
	Message   string            `json:"message"`
	Debug     *ResponseAPIDebug `json:"debug,omitempty"`
}

// StreamChunk is one encoded snapshot on its way to the client. JSONBuf
// points into the shared buffer pool and is returned to it after the
// write.
type StreamChunk struct {
	JSONBuf *[]byte
	Error   error
}

// StreamResponse configures an open-ended snapshot feed. ChunkChan
// stays open until the producer shuts down or the client disconnects;
// each chunk is written as one NDJSON line.
type StreamResponse struct {
	ChunkChan <-chan StreamChunk
	Error     error
	Code      int
}

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 4096)
		return &buf
	},
}

// AcquireBuffer hands out a pooled, zero-length buffer for snapshot
// encoding. Ownership passes to sendStream once the buffer is placed in
// a StreamChunk.
func AcquireBuffer() *[]byte {
	buf := jsonBufferPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

// ReleaseBuffer returns a buffer that never made it into a chunk.
func ReleaseBuffer(buf *[]byte) {
	if buf != nil {
		jsonBufferPool.Put(buf)
	}
}
