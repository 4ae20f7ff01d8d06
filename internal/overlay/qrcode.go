package overlay

import (
	"fmt"
	"image"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"
)

// QRCode renders link as a square code of size pixels. The returned image is
// placed horizontally centered on a frame of frameWidth with its top edge at y.
func QRCode(link string, size, frameWidth, y int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid qr size %d", size)
	}
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr %q: %w", link, err)
	}
	code := q.Image(size)

	x := (frameWidth - size) / 2
	dst := image.NewRGBA(image.Rect(x, y, x+size, y+size))
	draw.Draw(dst, dst.Bounds(), code, code.Bounds().Min, draw.Src)
	return dst, nil
}
