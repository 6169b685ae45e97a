// Package media implements the photo size policy and the audio clip store.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/chronica-app/chronica/internal/errs"
)

// Photo processing bounds. Uploads are downscaled so neither dimension
// exceeds MaxDim and re-encoded as JPEG at JPEGQuality.
const (
	MaxDim      = 800
	JPEGQuality = 60
)

// Policy caps the photo a submission may carry. Create measures the raw
// encoded JPEG bytes while edit measures the Base64-encoded length; the
// limits are deliberately asymmetric and existing clients depend on both
// as they are.
type Policy struct {
	MaxCreateBytes     int
	MaxEditBase64Chars int
}

// DefaultPolicy holds the production caps.
var DefaultPolicy = Policy{
	MaxCreateBytes:     750_000,
	MaxEditBase64Chars: 1_000_000,
}

// Downscale decodes src, scales it down uniformly so neither dimension
// exceeds MaxDim (images already within bounds are left untouched), and
// re-encodes as JPEG at the fixed quality.
func Downscale(src []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > MaxDim || h > MaxDim {
		scale := min(float64(MaxDim)/float64(w), float64(MaxDim)/float64(h))
		nw := int(float64(w)*scale + 0.5)
		nh := int(float64(h)*scale + 0.5)
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeForCreate runs the photo policy for a create submission: downscale,
// enforce the raw byte cap, then Base64-encode without line breaks.
func (p Policy) EncodeForCreate(src []byte) (string, error) {
	enc, err := Downscale(src)
	if err != nil {
		return "", err
	}
	if len(enc) > p.MaxCreateBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", errs.ErrImageTooLarge, len(enc), p.MaxCreateBytes)
	}
	return base64.StdEncoding.EncodeToString(enc), nil
}

// EncodeForEdit runs the photo policy for an edit submission: downscale,
// Base64-encode, then enforce the encoded-length cap.
func (p Policy) EncodeForEdit(src []byte) (string, error) {
	enc, err := Downscale(src)
	if err != nil {
		return "", err
	}
	s := base64.StdEncoding.EncodeToString(enc)
	if len(s) > p.MaxEditBase64Chars {
		return "", fmt.Errorf("%w: %d chars (max %d)", errs.ErrImageTooLarge, len(s), p.MaxEditBase64Chars)
	}
	return s, nil
}
