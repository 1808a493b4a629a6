package srtsock

import "fmt"

// SliceChunks splits data into consecutive chunks of at most max bytes. The
// chunks alias data.
func SliceChunks(data []byte, max int) [][]byte {
	if max <= 0 || len(data) == 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(data)+max-1)/max)
	for off := 0; off < len(data); off += max {
		end := min(off+max, len(data))
		chunks = append(chunks, data[off:end:end])
	}
	return chunks
}

// ChunksLen returns the total size of chunks.
func ChunksLen(chunks [][]byte) int {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	return n
}

// JoinChunks concatenates chunks into one buffer.
func JoinChunks(chunks [][]byte) []byte {
	out := make([]byte, 0, ChunksLen(chunks))
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// WriteChunks writes each chunk as one message on h and returns the bytes
// written before the first failure.
func (s *SRT) WriteChunks(h Handle, chunks [][]byte) (int, error) {
	total := 0
	for _, c := range chunks {
		n, err := s.Write(h, c)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll splits data into messages no larger than h's payload size and
// writes them in order.
func (s *SRT) WriteAll(h Handle, data []byte) (int, error) {
	v, err := s.GetSockOpt(h, OptPayloadSize)
	if err != nil {
		return 0, err
	}
	size := int(v.Int32())
	if size <= 0 {
		return 0, newError(ErrInvalidArgument, "write", h, fmt.Errorf("payload size %d", size))
	}
	return s.WriteChunks(h, SliceChunks(data, size))
}
