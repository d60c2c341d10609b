package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// Encoder turns a pass id into a scannable artifact. Scanning the artifact
// must yield the original string verbatim.
type Encoder interface {
	Encode(content string) ([]byte, error)
}

type PNGEncoder struct {
	size int
}

func NewPNGEncoder(size int) *PNGEncoder {
	if size <= 0 {
		size = defaultSize
	}
	return &PNGEncoder{size: size}
}

func (e *PNGEncoder) Encode(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

var _ Encoder = (*PNGEncoder)(nil)
