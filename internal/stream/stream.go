// Package stream bridges a hub subscription into the middleware's
// chunked response machinery: every collection snapshot becomes one
// JSON-encoded chunk on an open-ended feed.
package stream

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/Digiaroficial/digi-reparaciones-app/middleware"
)

// Feed emits initial as the first chunk (the subscriber's view of the
// collection right now, the way a fresh listener expects), then one
// chunk per snapshot until the subscription closes or ctx is done.
// cancel releases the hub subscription on the way out.
func Feed[T any](ctx context.Context, initial []T, snapshots <-chan []T, cancel func()) middleware.StreamResponse {
	chunkChan := make(chan middleware.StreamChunk, 4)

	go func() {
		defer close(chunkChan)
		defer cancel()

		if !emit(ctx, chunkChan, initial) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				if !emit(ctx, chunkChan, snap) {
					return
				}
			}
		}
	}()

	return middleware.StreamResponse{ChunkChan: chunkChan}
}

// emit encodes one snapshot and queues it. The send watches ctx: once
// the client is gone nobody drains chunkChan, and a blocked send here
// would keep the feed goroutine and its hub subscription alive forever.
func emit[T any](ctx context.Context, chunkChan chan<- middleware.StreamChunk, snapshot []T) bool {
	if snapshot == nil {
		snapshot = []T{}
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		select {
		case chunkChan <- middleware.StreamChunk{Error: fmt.Errorf("encode snapshot: %w", err)}:
		case <-ctx.Done():
		}
		return false
	}

	buf := middleware.AcquireBuffer()
	*buf = append(*buf, data...)
	select {
	case chunkChan <- middleware.StreamChunk{JSONBuf: buf}:
		return true
	case <-ctx.Done():
		middleware.ReleaseBuffer(buf)
		return false
	}
}
