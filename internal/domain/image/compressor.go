package image

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"mealvision-server/internal/platform/logging"
)

const jpegMediaType = "image/jpeg"

// Compressor re-encodes uploads into one canonical jpeg under a width budget.
// It holds no mutable state, so one instance serves any number of concurrent
// pipeline runs.
type Compressor struct {
	logger *logging.Logger
}

func NewCompressor(logger *logging.Logger) *Compressor {
	return &Compressor{logger: logger}
}

// Compress decodes raw, scales it down to maxWidth when wider (aspect ratio
// preserved) and re-encodes as jpeg at the given quality in (0,1]. Images at
// or under the budget keep their dimensions but are still re-encoded, which
// normalizes the format and drops metadata.
//
// Compression is best-effort: when decoding or encoding fails the original
// payload is returned unchanged instead of failing the pipeline.
func (c *Compressor) Compress(raw RawImage, maxWidth int, quality float64) CompressedImage {
	img, format, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		c.logger.WarnTag("PIPELINE", "image decode failed, passing original through: %v", err)
		return passthrough(raw)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxWidth {
		newHeight := height * maxWidth / width
		scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
		width = maxWidth
		height = newHeight
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		c.logger.WarnTag("PIPELINE", "jpeg encode failed, passing original through: %v", err)
		return passthrough(raw)
	}

	c.logger.DebugTag("PIPELINE", "compressed %s: %d -> %d bytes, %dx%d (source format %s)",
		raw.FileName, len(raw.Data), buf.Len(), width, height, format)

	return CompressedImage{
		Data:      buf.Bytes(),
		MediaType: jpegMediaType,
		FileName:  raw.FileName,
		Width:     width,
		Height:    height,
	}
}

func passthrough(raw RawImage) CompressedImage {
	return CompressedImage{
		Data:      raw.Data,
		MediaType: raw.MediaType,
		FileName:  raw.FileName,
	}
}

// jpegQuality maps the 0..1 quality factor onto jpeg's 1..100 scale.
func jpegQuality(quality float64) int {
	q := int(quality * 100)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
