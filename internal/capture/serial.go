package capture

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/thijstriemstra/edrumulus/internal/logging"
	"github.com/thijstriemstra/edrumulus/internal/trigger"
)

// Source streams sample frames from the trigger MCU's USB serial port into
// the engine.
type Source struct {
	// Atomic fields first for 64-bit alignment on 32-bit targets.
	framesRead int64
	frameErrs  int64
	closed     int32

	logger zerolog.Logger
	port   serial.Port
	fr     *FrameReader
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(device string, baud int) (*Source, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	logger := logging.GetSubsystemLogger("capture")
	logger.Info().Str("device", device).Int("baud", baud).Msg("serial port opened")
	return &Source{
		logger: logger,
		port:   port,
		fr:     NewFrameReader(port),
	}, nil
}

// Run decodes frames and feeds them to the engine until the port closes or
// fails. Corrupt frames are counted and skipped; the stream resynchronizes
// on the next frame marker.
func (s *Source) Run(e *trigger.Engine) error {
	for {
		f, err := s.fr.Next()
		switch {
		case err == nil:
			atomic.AddInt64(&s.framesRead, 1)
			e.Feed(f)
		case errors.Is(err, ErrChecksum),
			errors.Is(err, ErrUnknownCommand),
			errors.Is(err, ErrMalformedFrame):
			atomic.AddInt64(&s.frameErrs, 1)
			s.logger.Debug().Err(err).Msg("frame discarded")
		default:
			if atomic.LoadInt32(&s.closed) == 1 {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}

// Stats returns the number of frames decoded and discarded.
func (s *Source) Stats() (read, errored int64) {
	return atomic.LoadInt64(&s.framesRead), atomic.LoadInt64(&s.frameErrs)
}

// Close shuts the serial port; a blocked Run returns nil after this.
func (s *Source) Close() error {
	atomic.StoreInt32(&s.closed, 1)
	s.logger.Info().Msg("closing serial port")
	return s.port.Close()
}
