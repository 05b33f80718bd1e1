// Package capture reads framed ADC sample blocks from the trigger
// microcontroller and feeds them to the engine.
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/thijstriemstra/edrumulus/internal/trigger"
)

// Wire framing. Each frame is a full sample block for one pad:
//
//	[SOF0][SOF1][LEN][CMD][pad][channels][count][samples...][CKS]
//
// LEN covers CMD through the last sample byte. Samples are signed 16-bit
// little-endian, primary channel first, secondary interleaved after it for
// dual-sensor pads. CKS is the XOR of LEN and every byte it covers.
const (
	SOF0           = 0xAA
	SOF1           = 0x55
	CmdSampleBlock = 0x21

	frameHeaderLen = 3   // pad, channels, count
	maxPayloadLen  = 255 // one-byte LEN field
	maxSamples     = 64
)

// maxBlockSamples returns the largest sample count a block may carry for the
// given channel count without overflowing the one-byte LEN field. Dual-channel
// blocks cap below maxSamples (62 at two channels).
func maxBlockSamples(channels int) int {
	limit := (maxPayloadLen - 1 - frameHeaderLen) / (channels * 2)
	if limit > maxSamples {
		limit = maxSamples
	}
	return limit
}

// sampleScale converts a signed 16-bit ADC reading to full-scale [-1, 1).
const sampleScale = 1.0 / 32768.0

var (
	ErrChecksum       = errors.New("frame checksum mismatch")
	ErrUnknownCommand = errors.New("unknown frame command")
	ErrMalformedFrame = errors.New("malformed frame")
)

// FrameReader decodes sample frames from a byte stream. A corrupt frame
// yields an error for that frame only; the reader resynchronizes on the
// next start-of-frame marker.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps the given stream.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the next decoded frame. io.EOF signals end of stream;
// ErrChecksum, ErrUnknownCommand and ErrMalformedFrame are per-frame and
// recoverable.
func (fr *FrameReader) Next() (trigger.Frame, error) {
	if err := fr.sync(); err != nil {
		return trigger.Frame{}, err
	}

	length, err := fr.r.ReadByte()
	if err != nil {
		return trigger.Frame{}, err
	}
	body := make([]byte, int(length)+1) // payload plus checksum byte
	if _, err := io.ReadFull(fr.r, body); err != nil {
		return trigger.Frame{}, err
	}

	payload, cks := body[:length], body[length]
	sum := length
	for _, b := range payload {
		sum ^= b
	}
	if sum != cks {
		return trigger.Frame{}, ErrChecksum
	}

	if len(payload) < 1+frameHeaderLen {
		return trigger.Frame{}, fmt.Errorf("%w: %d byte payload", ErrMalformedFrame, len(payload))
	}
	if payload[0] != CmdSampleBlock {
		return trigger.Frame{}, fmt.Errorf("%w: 0x%02x", ErrUnknownCommand, payload[0])
	}
	return parseSampleBlock(payload[1:])
}

// sync consumes bytes until the two-byte start-of-frame marker is seen.
func (fr *FrameReader) sync() error {
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			return err
		}
		if b != SOF0 {
			continue
		}
		next, err := fr.r.ReadByte()
		if err != nil {
			return err
		}
		if next == SOF1 {
			return nil
		}
		if next == SOF0 {
			// Could be the start of a marker itself; retry from here.
			_ = fr.r.UnreadByte()
		}
	}
}

func parseSampleBlock(p []byte) (trigger.Frame, error) {
	pad := int(p[0])
	channels := int(p[1])
	count := int(p[2])
	if channels != 1 && channels != 2 {
		return trigger.Frame{}, fmt.Errorf("%w: %d channels", ErrMalformedFrame, channels)
	}
	if count < 1 || count > maxBlockSamples(channels) {
		return trigger.Frame{}, fmt.Errorf("%w: %d samples", ErrMalformedFrame, count)
	}
	data := p[frameHeaderLen:]
	if len(data) != count*channels*2 {
		return trigger.Frame{}, fmt.Errorf("%w: %d sample bytes for %d samples",
			ErrMalformedFrame, len(data), count)
	}

	f := trigger.Frame{Pad: pad, Primary: make([]float64, count)}
	if channels == 2 {
		f.Secondary = make([]float64, count)
	}
	for i := 0; i < count; i++ {
		off := i * channels * 2
		f.Primary[i] = float64(int16(binary.LittleEndian.Uint16(data[off:]))) * sampleScale
		if channels == 2 {
			f.Secondary[i] = float64(int16(binary.LittleEndian.Uint16(data[off+2:]))) * sampleScale
		}
	}
	return f, nil
}

// EncodeFrame builds the on-wire representation of a sample block. The
// firmware is the usual producer; this encoder serves tests and stream
// replay tools. Blocks whose payload would overflow the one-byte LEN field
// are rejected; callers split oversized blocks.
func EncodeFrame(f trigger.Frame) ([]byte, error) {
	channels := 1
	if f.Secondary != nil {
		channels = 2
	}
	count := len(f.Primary)
	if count < 1 || count > maxBlockSamples(channels) {
		return nil, fmt.Errorf("%w: %d samples on %d channels (max %d)",
			ErrMalformedFrame, count, channels, maxBlockSamples(channels))
	}

	payload := make([]byte, 0, 1+frameHeaderLen+count*channels*2)
	payload = append(payload, CmdSampleBlock, byte(f.Pad), byte(channels), byte(count))
	var buf [2]byte
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint16(buf[:], uint16(int16(clampScale(f.Primary[i]))))
		payload = append(payload, buf[0], buf[1])
		if channels == 2 {
			binary.LittleEndian.PutUint16(buf[:], uint16(int16(clampScale(f.Secondary[i]))))
			payload = append(payload, buf[0], buf[1])
		}
	}

	length := byte(len(payload))
	cks := length
	for _, b := range payload {
		cks ^= b
	}

	out := make([]byte, 0, len(payload)+4)
	out = append(out, SOF0, SOF1, length)
	out = append(out, payload...)
	out = append(out, cks)
	return out, nil
}

func clampScale(s float64) float64 {
	v := s / sampleScale
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return v
}
