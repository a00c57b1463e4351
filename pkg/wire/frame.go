// Package wire implements the RGPU frame format: an 11-byte header
// (magic, flags, stream id, payload length) followed by a tagged,
// optionally LZ4-compressed Message payload. Encoding and framing are
// deliberately separate passes -- codec.go turns a protocol.Message into
// bytes, frame.go wraps those bytes for the socket -- the same split the
// PackStream chunk framing in the Bolt server keeps between chunk headers
// and struct encoding.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/rgpu/rgpu/pkg/protocol"
)

// Magic identifies an RGPU frame: ASCII "RG".
var Magic = [2]byte{0x52, 0x47}

// MaxFrameSize is the largest payload a single frame may carry.
const MaxFrameSize = 256 * 1024 * 1024

// HeaderSize is magic(2) + flags(1) + stream_id(4) + length(4).
const HeaderSize = 11

// compressionThreshold is the minimum raw payload size before LZ4 is even
// attempted; smaller payloads are sent uncompressed to avoid overhead.
const compressionThreshold = 512

// FrameFlags is the single flags byte carried by every frame header.
type FrameFlags uint8

const (
	FlagCompressed FrameFlags = 1 << iota
	FlagHasBulk
	FlagResponse
	FlagError
	FlagBatch
)

// Header is the decoded 11-byte frame prefix.
type Header struct {
	Flags     FrameFlags
	StreamID  uint32
	PayloadLen uint32
}

// EncodeMessage serializes msg, opportunistically LZ4-compresses the
// payload, and returns a complete frame (header + payload) ready to write
// to the wire.
func EncodeMessage(msg *protocol.Message, streamID uint32) ([]byte, error) {
	payload, err := EncodeMessagePayload(msg)
	if err != nil {
		return nil, protocol.NewSerializationError(err.Error())
	}

	flags := FrameFlags(0)
	if msg.Tag == protocol.MsgTagError {
		flags |= FlagError
	}

	final := payload
	if len(payload) > compressionThreshold {
		compressed := compressLZ4(payload)
		if len(compressed) < len(payload) {
			final = compressed
			flags |= FlagCompressed
		}
	}

	if len(final) > MaxFrameSize {
		return nil, fmt.Errorf("wire: frame too large: %d bytes", len(final))
	}

	frame := make([]byte, HeaderSize+len(final))
	frame[0], frame[1] = Magic[0], Magic[1]
	frame[2] = byte(flags)
	binary.LittleEndian.PutUint32(frame[3:7], streamID)
	binary.LittleEndian.PutUint32(frame[7:11], uint32(len(final)))
	copy(frame[HeaderSize:], final)
	return frame, nil
}

// DecodeHeader parses an 11-byte frame header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("wire: short header: %d bytes", len(buf))
	}
	if buf[0] != Magic[0] || buf[1] != Magic[1] {
		return Header{}, fmt.Errorf("wire: invalid magic: %02x%02x", buf[0], buf[1])
	}
	payloadLen := binary.LittleEndian.Uint32(buf[7:11])
	if payloadLen > MaxFrameSize {
		return Header{}, fmt.Errorf("wire: frame too large: %d bytes", payloadLen)
	}
	return Header{
		Flags:      FrameFlags(buf[2]),
		StreamID:   binary.LittleEndian.Uint32(buf[3:7]),
		PayloadLen: payloadLen,
	}, nil
}

// DecodeMessage decodes a frame's payload (after decompression, if the
// COMPRESSED flag is set) back into a protocol.Message.
func DecodeMessage(payload []byte, flags FrameFlags) (*protocol.Message, error) {
	raw := payload
	if flags&FlagCompressed != 0 {
		decompressed, err := decompressLZ4(payload)
		if err != nil {
			return nil, protocol.NewSerializationError(fmt.Sprintf("lz4 decompress: %v", err))
		}
		raw = decompressed
	}
	msg, err := DecodeMessagePayload(raw)
	if err != nil {
		return nil, protocol.NewSerializationError(err.Error())
	}
	return msg, nil
}

// ReadFrame reads one complete frame (header + payload) from r.
func ReadFrame(r io.Reader) (Header, []byte, error) {
	var headerBuf [HeaderSize]byte
	if _, err := io.ReadFull(r, headerBuf[:]); err != nil {
		return Header{}, nil, err
	}
	hdr, err := DecodeHeader(headerBuf[:])
	if err != nil {
		return Header{}, nil, err
	}
	payload := make([]byte, hdr.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, nil, err
	}
	return hdr, payload, nil
}

// compressLZ4 compresses src using a size-prefixed frame: the
// uncompressed length first (4 bytes LE) then the compressed block, so
// decompressLZ4 needs no external bookkeeping to size its output buffer.
func compressLZ4(src []byte) []byte {
	dst := make([]byte, 4+lz4.CompressBlockBound(len(src)))
	binary.LittleEndian.PutUint32(dst[:4], uint32(len(src)))

	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst[4:])
	if err != nil || n == 0 {
		// Incompressible input: fall back to "no gain" by returning
		// something at least as long as src so the caller keeps the
		// uncompressed form.
		return append([]byte{}, src...)
	}
	return dst[:4+n]
}

func decompressLZ4(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("lz4 frame too short")
	}
	origLen := binary.LittleEndian.Uint32(src[:4])
	dst := make([]byte, origLen)
	n, err := lz4.UncompressBlock(src[4:], dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
