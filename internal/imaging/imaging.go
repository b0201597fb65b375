package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/vbonduro/propinv/internal/domain"
)

const (
	DefaultPhotoWidth      = 800
	DefaultFrontImageWidth = 1200
	DefaultQuality         = 70
)

// Label geometry, measured from the bottom-right corner of the output.
const (
	labelOffsetX = 200
	labelOffsetY = 30
	labelWidth   = 190
	labelHeight  = 25
	textInsetX   = 15
	textInsetY   = 12
)

var labelFill = color.NRGBA{R: 255, G: 255, B: 255, A: 179}

// Pipeline normalises captured images: resize to a target width, stamp the
// processing time in the bottom-right corner and re-encode as JPEG.
type Pipeline struct {
	quality int
	now     func() time.Time
	face    font.Face
}

// New returns a pipeline encoding at the given JPEG quality. A non-positive
// quality selects DefaultQuality; a nil clock uses domain.Now.
func New(quality int, now func() time.Time) *Pipeline {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if now == nil {
		now = domain.Now
	}
	return &Pipeline{quality: quality, now: now, face: basicfont.Face7x13}
}

// Process scales raw to maxWidth (upscaling narrower images), watermarks it
// and returns JPEG bytes. When raw cannot be decoded the original bytes are
// returned together with an error wrapping domain.ErrImageDecode.
func (p *Pipeline) Process(ctx context.Context, raw []byte, maxWidth int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxWidth <= 0 {
		return nil, fmt.Errorf("max width %d: %w", maxWidth, domain.ErrValidation)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return raw, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return raw, fmt.Errorf("%w: empty image", domain.ErrImageDecode)
	}

	w, h := targetSize(b.Dx(), b.Dy(), maxWidth)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	p.stamp(dst, domain.FormatDateTime(p.now()))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func targetSize(width, height, maxWidth int) (int, int) {
	scale := float64(maxWidth) / float64(width)
	h := int(math.Round(float64(height) * scale))
	if h < 1 {
		h = 1
	}
	return maxWidth, h
}

// stamp draws the timestamp label. Everything is clipped to dst, so images
// smaller than the label just show the part that fits.
func (p *Pipeline) stamp(dst *image.RGBA, text string) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	label := image.Rect(w-labelOffsetX, h-labelOffsetY, w-labelOffsetX+labelWidth, h-labelOffsetY+labelHeight)
	draw.Draw(dst, label, image.NewUniform(labelFill), image.Point{}, draw.Over)

	d := &font.Drawer{Dst: dst, Src: image.Black, Face: p.face}
	advance := d.MeasureString(text)
	d.Dot = fixed.Point26_6{X: fixed.I(w-textInsetX) - advance, Y: fixed.I(h - textInsetY)}
	d.DrawString(text)
}
