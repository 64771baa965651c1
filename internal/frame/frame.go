// Package frame implements the length-prefixed message framing used on the
// request, result and controller channels. Every message is a 4-byte big-endian
// length followed by the payload bytes. Frames are the unit of corruption
// containment: a reader either gets a whole message or a hard error.
package frame

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxSize bounds a single frame. Anything larger is treated as a corrupted
// stream, not a big message.
const MaxSize = 256 << 20

var ErrTooLarge = errors.New("frame exceeds maximum size")

// Write writes one framed payload. The write is a single Write call on w so
// that well-behaved pipe writers don't interleave partial frames.
func Write(w io.Writer, payload []byte) error {
	if len(payload) > MaxSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}

	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Read reads one framed payload. It returns io.EOF only when the stream ends
// cleanly before the first header byte; a stream that ends mid-frame returns
// io.ErrUnexpectedEOF so callers can tell shutdown from truncation.
func Read(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxSize {
		return nil, fmt.Errorf("%w: header claims %d bytes", ErrTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

// WriteJSON marshals v and writes it as one frame. It returns the payload size
// so callers can account for what actually went on the wire.
func WriteJSON(w io.Writer, v interface{}) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("marshal frame payload: %w", err)
	}
	if err := Write(w, payload); err != nil {
		return 0, err
	}
	return len(payload), nil
}

// ReadJSON reads one frame and unmarshals it into v.
func ReadJSON(r io.Reader, v interface{}) error {
	payload, err := Read(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("unmarshal frame payload: %w", err)
	}
	return nil
}
