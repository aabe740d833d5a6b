// Package imaging holds the few bitmap operations the pipeline needs: decoding uploads,
// cropping a relative box, re-encoding as PNG and adaptive thresholding.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Box is a crop rectangle expressed as fractions of width and height.
type Box struct {
	Left, Top, Right, Bottom float64
}

// CandidatePhotoBox is where the candidate photo sits on the first page of a Credence form.
var CandidatePhotoBox = Box{Left: 0.75, Top: 0.25, Right: 0.95, Bottom: 0.35}

// Decode reads any registered format and returns the image and its format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// EncodePNG writes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ToPNG normalises an uploaded image of any supported format to PNG.
func ToPNG(data []byte) ([]byte, error) {
	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if format == "png" {
		return data, nil
	}
	return EncodePNG(img)
}

// Rect converts b to pixel coordinates inside bounds, truncating like integer division.
func (b Box) Rect(bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	r := image.Rect(
		bounds.Min.X+int(w*b.Left),
		bounds.Min.Y+int(h*b.Top),
		bounds.Min.X+int(w*b.Right),
		bounds.Min.Y+int(h*b.Bottom),
	)
	return r.Intersect(bounds)
}

// Crop copies the region b of img into a new RGBA image.
func Crop(img image.Image, b Box) (*image.RGBA, error) {
	r := b.Rect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("crop box %+v is empty for a %dx%d image", b, img.Bounds().Dx(), img.Bounds().Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	return dst, nil
}

// CropPNG decodes data, crops b and returns the crop as PNG.
func CropPNG(data []byte, b Box) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	cropped, err := Crop(img, b)
	if err != nil {
		return nil, err
	}
	return EncodePNG(cropped)
}
