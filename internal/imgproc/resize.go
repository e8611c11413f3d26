// Package imgproc holds the pure pixel-domain primitives shared by
// every detector: resize, grayscale conversion, Gaussian blur, Sobel
// gradients, SSIM distance, and histogram construction/comparison.
// These mirror the "OpenCV collaborator" operations spec.md §9 calls
// out (color conversion, resize, blur, Sobel, histograms, optical
// flow) without mandating a particular imaging library; resize uses
// golang.org/x/image/draw the way soockee-pixel-bot-go's
// capture/multi_scale.go and ui/images/scale.go resample template
// images for multi-scale matching.
package imgproc

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Frame is a decoded 3-channel 8-bit BGR frame, the pixel format
// spec.md §4.1 says the Frame Source delivers to detectors. It is a
// thin wrapper so detectors don't have to fight Go's *image.RGBA
// channel ordering (which is R,G,B,A) when the domain talks BGR.
type Frame struct {
	Width, Height int
	// Stride is bytes per row; Pix is Height*Stride bytes, BGR order,
	// no alpha.
	Stride int
	Pix    []byte
}

// NewFrame allocates a zeroed BGR frame.
func NewFrame(w, h int) *Frame {
	return &Frame{Width: w, Height: h, Stride: w * 3, Pix: make([]byte, w*h*3)}
}

// At returns the BGR triple at (x, y).
func (f *Frame) At(x, y int) (b, g, r uint8) {
	i := y*f.Stride + x*3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes the BGR triple at (x, y).
func (f *Frame) Set(x, y int, b, g, r uint8) {
	i := y*f.Stride + x*3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
}

// ToRGBA adapts the frame to the standard library's image.Image so it
// can be fed to golang.org/x/image/draw.
func (f *Frame) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			b, g, r := f.At(x, y)
			out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

// FromRGBA converts an image.Image back into a BGR Frame.
func FromRGBA(img image.Image) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(x, y, uint8(b>>8), uint8(g>>8), uint8(r>>8))
		}
	}
	return out
}

// ResizeToShorterSide scales the frame so its shorter side equals
// target, preserving aspect ratio, using a bilinear resampler (the
// CatmullRom/ApproxBiLinear family golang.org/x/image/draw exposes).
// Frames whose shorter side is already at or under target are
// returned unchanged, so no upscale happens; the output size is
// therefore not guaranteed to match target.
func ResizeToShorterSide(f *Frame, target int) *Frame {
	if target <= 0 || f.Width == 0 || f.Height == 0 {
		return f
	}
	shorter := f.Width
	if f.Height < shorter {
		shorter = f.Height
	}
	if shorter <= target {
		return f
	}
	scale := float64(target) / float64(shorter)
	newW := int(float64(f.Width)*scale + 0.5)
	newH := int(float64(f.Height)*scale + 0.5)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	src := f.ToRGBA()
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return FromRGBA(dst)
}

// ToGrayscale converts a BGR frame to a single-channel byte plane
// using the ITU-R BT.601 luma weights.
func ToGrayscale(f *Frame) []byte {
	gray := make([]byte, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			b, g, r := f.At(x, y)
			lum := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			gray[y*f.Width+x] = uint8(lum + 0.5)
		}
	}
	return gray
}
