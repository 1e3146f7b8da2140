package mediahost

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	jpegQuality = 85

	// MaxPixels caps width*height of an image we are willing to decode.
	MaxPixels = 40_000_000
)

var ErrImageTooLarge = errors.New("image dimensions exceed the decode limit")

var magic = map[string][]byte{
	"image/jpeg": {0xFF, 0xD8, 0xFF},
	"image/png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"image/webp": {0x52, 0x49, 0x46, 0x46}, // RIFF....WEBP
}

// DetectType sniffs the image type from magic bytes. It returns "" for
// formats Transform cannot decode.
func DetectType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, magic["image/jpeg"]):
		return "image/jpeg"
	case bytes.HasPrefix(data, magic["image/png"]):
		return "image/png"
	case len(data) >= 12 && bytes.HasPrefix(data, magic["image/webp"]) && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return ""
}

func decodeConfig(data []byte, mimeType string) (image.Config, error) {
	r := bytes.NewReader(data)
	switch mimeType {
	case "image/jpeg":
		return jpeg.DecodeConfig(r)
	case "image/png":
		return png.DecodeConfig(r)
	case "image/webp":
		return webp.DecodeConfig(r)
	}
	return image.Config{}, fmt.Errorf("unsupported image type: %s", mimeType)
}

func decode(data []byte, mimeType string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch mimeType {
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/png":
		return png.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	}
	return nil, fmt.Errorf("unsupported image type: %s", mimeType)
}

// FitBox returns the largest size with the source aspect ratio that fits in
// maxW x maxH without upscaling. A zero bound is unconstrained.
func FitBox(srcW, srcH, maxW, maxH int) (int, int) {
	ratio := 1.0
	if maxW > 0 && srcW > maxW {
		ratio = float64(maxW) / float64(srcW)
	}
	if maxH > 0 && srcH > maxH {
		if r := float64(maxH) / float64(srcH); r < ratio {
			ratio = r
		}
	}
	if ratio >= 1 {
		return srcW, srcH
	}
	w, h := int(float64(srcW)*ratio), int(float64(srcH)*ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Transform bounds a decodable image to the box. Images with transparency are
// re-encoded as PNG, opaque ones are flattened onto white and re-encoded as
// JPEG. GIF, AVIF and other formats pass through unchanged. The returned
// content type and extension describe the output.
func Transform(data []byte, maxW, maxH int) (out []byte, contentType, ext string, err error) {
	mimeType := DetectType(data)
	if mimeType == "" {
		ct := http.DetectContentType(data)
		return data, ct, "", nil
	}

	cfg, err := decodeConfig(data, mimeType)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := decode(data, mimeType)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	w, h := FitBox(b.Dx(), b.Dy(), maxW, maxH)
	alpha := hasAlpha(img)

	if alpha {
		if w != b.Dx() || h != b.Dy() {
			dst := image.NewRGBA(image.Rect(0, 0, w, h))
			draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
			img = dst
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", "", fmt.Errorf("failed to encode image: %w", err)
		}
		return buf.Bytes(), "image/png", ".png", nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w != b.Dx() || h != b.Dy() {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", ".jpg", nil
}

// hasAlpha reports whether any pixel is not fully opaque. Image types without
// an Opaque method are treated as transparent.
func hasAlpha(img image.Image) bool {
	o, ok := img.(interface{ Opaque() bool })
	return !ok || !o.Opaque()
}
