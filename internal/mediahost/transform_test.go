package mediahost

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		wantW, wantH int
	}{
		{"fits already", 400, 300, 400, 300},
		{"wide", 1600, 800, 800, 400},
		{"tall", 500, 2000, 250, 1000},
		{"both over, height binds", 1000, 2000, 500, 1000},
		{"exact box", 800, 1000, 800, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitBox(tt.srcW, tt.srcH, 800, 1000)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestTransform_DownscalesPNGToJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(1600, 900)))

	out, ct, ext, err := Transform(buf.Bytes(), 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
	assert.Equal(t, ".jpg", ext)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 450, cfg.Height)
}

func TestTransform_DoesNotUpscale(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solidImage(120, 80), nil))

	out, _, _, err := Transform(buf.Bytes(), 800, 1000)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}

func TestTransform_GIFPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, solidImage(10, 10), nil))

	out, ct, ext, err := Transform(buf.Bytes(), 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out)
	assert.Equal(t, "image/gif", ct)
	assert.Empty(t, ext)
}

func TestTransform_CorruptJPEG(t *testing.T) {
	_, _, _, err := Transform([]byte{0xFF, 0xD8, 0xFF, 0x00, 0x01}, 800, 1000)
	assert.Error(t, err)
}

// solidGrayPNG encodes a single-colour grayscale image; it compresses to a
// few hundred KiB even at tens of megapixels.
func solidGrayPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestTransform_RejectsOversizedDimensions(t *testing.T) {
	data := solidGrayPNG(t, 6400, 6400)
	require.Less(t, len(data), 5<<20, "fits under the upload size cap")

	out, _, _, err := Transform(data, 800, 1000)
	assert.True(t, errors.Is(err, ErrImageTooLarge), "got %v", err)
	assert.Nil(t, out)
}

func TestTransform_UnderPixelLimitIsDecoded(t *testing.T) {
	out, ct, _, err := Transform(solidGrayPNG(t, 2000, 1000), 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
	assert.NotEmpty(t, out)
}

func transparentWithRedSquare(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := h / 4; y < 3*h/4; y++ {
		for x := w / 4; x < 3*w/4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	return img
}

func TestTransform_KeepsTransparencyAsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, transparentWithRedSquare(1600, 1600)))

	out, ct, ext, err := Transform(buf.Bytes(), 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 800, img.Bounds().Dy())

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a, "corner stays transparent")
	r, g, b, a := img.At(400, 400).RGBA()
	assert.Equal(t, uint32(0xFFFF), a)
	assert.Greater(t, r, uint32(0xF000))
	assert.Less(t, g, uint32(0x1000))
	assert.Less(t, b, uint32(0x1000))
}

func TestTransform_TransparentWithoutResize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, transparentWithRedSquare(100, 100)))

	out, ct, _, err := Transform(buf.Bytes(), 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a)
}
