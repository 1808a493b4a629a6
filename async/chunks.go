package async

import (
	"context"

	"github.com/opd-ai/srtsock"
)

// DefaultReadBufferSize is the per-call read size used by ReadChunks.
const DefaultReadBufferSize = 16 * 1024

// WriteChunks slices data into messages of at most mtu bytes and writes
// them in order, one worker call per message so other queued calls can
// interleave. It returns the bytes written before the first failure.
// onWrite, if set, is called after each message.
func (c *Client) WriteChunks(ctx context.Context, h srtsock.Handle, data []byte, mtu int, onWrite func(n int)) (int, error) {
	total := 0
	for _, chunk := range srtsock.SliceChunks(data, mtu) {
		n, err := c.Write(ctx, h, chunk)
		if err != nil {
			return total, err
		}
		total += n
		if onWrite != nil {
			onWrite(n)
		}
	}
	return total, nil
}

// ReadChunks reads until at least minBytes have arrived and returns the
// messages read. The total may exceed minBytes by less than one message.
// onRead, if set, sees each message as it arrives.
func (c *Client) ReadChunks(ctx context.Context, h srtsock.Handle, minBytes, bufSize int, onRead func([]byte)) ([][]byte, error) {
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}
	var chunks [][]byte
	read := 0
	for read < minBytes {
		buf, err := c.Read(ctx, h, bufSize)
		if err != nil {
			return chunks, err
		}
		read += len(buf)
		chunks = append(chunks, buf)
		if onRead != nil {
			onRead(buf)
		}
	}
	return chunks, nil
}
