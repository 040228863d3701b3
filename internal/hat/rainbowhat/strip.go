package rainbowhat

import (
	"fmt"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/apa102"

	"github.com/smazurov/weatherhat/internal/colors"
)

// strip drives the APA102 pixels. On the Rainbow HAT the data line enters
// from the right, so frames are written reversed to keep index 0 on the left.
type strip struct {
	dev     *apa102.Dev
	reverse bool
	buf     []byte
}

func openStrip(port spi.Port, brightness uint8, reverse bool) (*strip, error) {
	dev, err := apa102.New(port, &apa102.Opts{
		NumPixels:   colors.StripLength,
		Intensity:   brightness,
		Temperature: apa102.NeutralTemp,
	})
	if err != nil {
		return nil, fmt.Errorf("apa102: %w", err)
	}
	return &strip{
		dev:     dev,
		reverse: reverse,
		buf:     make([]byte, 3*colors.StripLength),
	}, nil
}

func (s *strip) Write(frame colors.Frame) error {
	for i, c := range frame {
		j := i
		if s.reverse {
			j = colors.StripLength - 1 - i
		}
		s.buf[3*j] = c.R
		s.buf[3*j+1] = c.G
		s.buf[3*j+2] = c.B
	}
	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("apa102 write: %w", err)
	}
	return nil
}

// SetBrightness takes effect with the next Write.
func (s *strip) SetBrightness(level uint8) error {
	s.dev.Intensity = level
	return nil
}

func (s *strip) Close() error {
	return s.dev.Halt()
}
