package srtsock

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceChunks(t *testing.T) {
	data := []byte("abcdefghij")

	chunks := SliceChunks(data, 4)
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcd", string(chunks[0]))
	assert.Equal(t, "ij", string(chunks[2]))
	assert.Equal(t, len(data), ChunksLen(chunks))
	assert.Equal(t, data, JoinChunks(chunks))

	assert.Len(t, SliceChunks(data, 10), 1)
	assert.Len(t, SliceChunks(data, 100), 1)
	assert.Nil(t, SliceChunks(nil, 4))
	assert.Nil(t, SliceChunks(data, 0))

	// Appending to a chunk must not clobber its neighbour.
	_ = append(chunks[0], 'X')
	assert.Equal(t, "efgh", string(chunks[1]))
}

func TestWriteAllUsesPayloadSize(t *testing.T) {
	s := newLoopbackSRT(t)
	ln, port := listenLoopback(t, s)
	c := dialLoopback(t, s, port)
	peer, err := s.Accept(ln)
	require.NoError(t, err)

	data := bytes.Repeat([]byte{0x47}, 1316*2+100)
	n, err := s.WriteAll(c, data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	var got [][]byte
	for len(got) < 3 {
		msg, err := s.Read(peer, 2048)
		require.NoError(t, err)
		got = append(got, msg)
	}
	assert.Len(t, got[0], 1316)
	assert.Len(t, got[2], 100)
	assert.Equal(t, data, JoinChunks(got))
}

func TestWriteChunksStopsAtFailure(t *testing.T) {
	s, _ := newMockSRT(t, nil)
	h, err := s.CreateSocket(false)
	require.NoError(t, err)

	n, err := s.WriteChunks(h, [][]byte{[]byte("ab"), []byte("cd")})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, s.Close(h))
	n, err = s.WriteChunks(h, [][]byte{[]byte("ab")})
	assert.Error(t, err)
	assert.Zero(t, n)
}
