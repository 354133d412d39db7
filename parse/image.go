package parse

import (
	"context"
	"image"
	"image/color"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImagePayload is the "image" result shape: header-level facts only.
type ImagePayload struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Format     string  `json:"format"`
	ColorMode  string  `json:"color_mode"`
	Megapixels float64 `json:"megapixels"`
}

// ImageCodec inspects raster images via image.DecodeConfig: dimensions,
// format, and color mode come from the header alone — a full pixel buffer is
// never materialized, whatever the file claims its size to be.
type ImageCodec struct{}

func (c *ImageCodec) Kind() string { return TypeImage }

func (c *ImageCodec) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".tif", ".tiff"}
}

func (c *ImageCodec) Describe() FormatInfo {
	return FormatInfo{
		Description: "Raster images (PNG, JPEG, GIF, BMP, WebP, TIFF)",
		Features:    []string{"dimensions", "format", "color mode", "header-only decode"},
	}
}

func (c *ImageCodec) Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error) {
	f, err := os.Open(fd.Path)
	if err != nil {
		return nil, fileFailure(fd.Path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, Failf(KindMalformedInput, "%s: %v", fd.Name, err)
	}

	return &Result{
		Type: TypeImage,
		Data: &ImagePayload{
			Width:      cfg.Width,
			Height:     cfg.Height,
			Format:     format,
			ColorMode:  colorModeName(cfg.ColorModel),
			Megapixels: float64(cfg.Width) * float64(cfg.Height) / 1e6,
		},
		Meta: Metadata{"truncated": false},
	}, nil
}

func colorModeName(m color.Model) string {
	switch m {
	case color.RGBAModel, color.RGBA64Model:
		return "rgba"
	case color.NRGBAModel, color.NRGBA64Model:
		return "rgba"
	case color.GrayModel, color.Gray16Model:
		return "grayscale"
	case color.AlphaModel, color.Alpha16Model:
		return "alpha"
	case color.CMYKModel:
		return "cmyk"
	case color.YCbCrModel:
		return "ycbcr"
	case color.NYCbCrAModel:
		return "ycbcra"
	}
	if _, ok := m.(color.Palette); ok {
		return "paletted"
	}
	return "unknown"
}
