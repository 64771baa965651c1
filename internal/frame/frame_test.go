package frame

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundtrip(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, []byte("hello")))
	require.NoError(t, Write(&buf, []byte{}))
	require.NoError(t, Write(&buf, []byte("world")))

	first, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), first)

	second, err := Read(&buf)
	require.NoError(t, err)
	assert.Empty(t, second)

	third, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), third)

	_, err = Read(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadCleanEOF(t *testing.T) {
	_, err := Read(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadTruncatedHeader(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0x00, 0x01}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestReadTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []byte("truncate me")))

	whole := buf.Bytes()
	_, err := Read(bytes.NewReader(whole[:len(whole)-3]))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadRejectsOversizedHeader(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxSize+1)

	_, err := Read(bytes.NewReader(header[:]))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestWriteRejectsOversizedPayload(t *testing.T) {
	// A fake writer is enough; the size check happens before any write.
	err := Write(io.Discard, make([]byte, MaxSize+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestJSONRoundtrip(t *testing.T) {
	type msg struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var buf bytes.Buffer
	size, err := WriteJSON(&buf, msg{Name: "job", Count: 3})
	require.NoError(t, err)
	assert.Greater(t, size, 0)

	var got msg
	require.NoError(t, ReadJSON(&buf, &got))
	assert.Equal(t, msg{Name: "job", Count: 3}, got)
}
