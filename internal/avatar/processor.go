// Package avatar normalizes uploaded avatar images. Arbitrary raster input
// comes in, a fixed-size PNG comes out; everything else about the upload
// (multipart parsing, size caps, filename checks) happens at the transport
// boundary.
package avatar

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/prn-tf/atlas-accounts/internal/domain"
)

// DefaultSize is the default output edge length in pixels.
const DefaultSize = 240

// Processor converts raw image uploads into normalized square PNGs.
type Processor struct {
	size int
}

// NewProcessor creates a Processor producing size x size PNGs.
func NewProcessor(size int) *Processor {
	if size < 1 {
		size = DefaultSize
	}
	return &Processor{size: size}
}

// Normalize decodes the input (JPEG, PNG, GIF, BMP, TIFF), center-crops it to
// a square of the configured edge length, and re-encodes it as PNG.
// Returns domain.ErrUnsupportedImage if the bytes are not a decodable raster
// image.
func (p *Processor) Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedImage, err)
	}

	normalized := imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, normalized, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// Size returns the configured output edge length.
func (p *Processor) Size() int {
	return p.size
}
