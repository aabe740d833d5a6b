package imaging

import (
	"image"
	"image/color"
	"math"
)

// Grayscale converts img to 8-bit luminance.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return gray
}

// AdaptiveThreshold binarises img against a Gaussian-weighted local mean minus c,
// using a block x block window (block must be odd and > 1). Pixels brighter than
// their threshold become white. Borders replicate the edge pixel.
func AdaptiveThreshold(img image.Image, block int, c float64) *image.Gray {
	if block < 3 || block%2 == 0 {
		block = 11
	}
	src := Grayscale(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	kernel := gaussianKernel(block)
	radius := block / 2

	// separable blur: rows into tmp, then columns
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				sum += kernel[k+radius] * float64(src.Pix[y*src.Stride+clamp(x+k, w)])
			}
			tmp[y*w+x] = sum
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mean float64
			for k := -radius; k <= radius; k++ {
				mean += kernel[k+radius] * tmp[clamp(y+k, h)*w+x]
			}
			if float64(src.Pix[y*src.Stride+x]) > mean-c {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// gaussianKernel uses the sigma OpenCV derives from the kernel size.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
