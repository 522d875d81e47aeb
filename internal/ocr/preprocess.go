package ocr

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sort"

	_ "image/jpeg"

	"golang.org/x/image/draw"
)

const (
	contrastFactor  = 1.5
	sharpnessFactor = 2.0
	minDimension    = 1000
)

// preprocessToTemp runs the recognition-accuracy pipeline (grayscale,
// contrast, sharpen, denoise, upscale) and writes the result to a temp
// PNG. The caller removes the file.
func preprocessToTemp(imagePath string) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	gray := toGray(img)
	gray = adjustContrast(gray, contrastFactor)
	gray = sharpen(gray, sharpnessFactor)
	gray = medianFilter(gray)
	gray = upscaleIfSmall(gray)

	tmp, err := os.CreateTemp("", "alexandria-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}

	if err := png.Encode(tmp, gray); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to encode preprocessed image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// adjustContrast scales pixel values away from mid-gray.
func adjustContrast(img *image.Gray, factor float64) *image.Gray {
	out := image.NewGray(img.Bounds())
	for i, v := range img.Pix {
		out.Pix[i] = clampPixel((float64(v)-128)*factor + 128)
	}
	return out
}

// sharpen blends the image away from a 3x3 box blur of itself. A
// factor of 1 is the identity; 2 doubles the distance from the blur.
func sharpen(img *image.Gray, factor float64) *image.Gray {
	blurred := boxBlur(img)
	out := image.NewGray(img.Bounds())
	for i := range img.Pix {
		orig := float64(img.Pix[i])
		blur := float64(blurred.Pix[i])
		out.Pix[i] = clampPixel(blur + factor*(orig-blur))
	}
	return out
}

func boxBlur(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum, count := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					sum += int(img.Pix[ny*img.Stride+nx])
					count++
				}
			}
			out.Pix[y*out.Stride+x] = uint8(sum / count)
		}
	}
	return out
}

// medianFilter applies a 3x3 median to knock out speckle noise.
func medianFilter(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)

	window := make([]int, 0, 9)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					window = append(window, int(img.Pix[ny*img.Stride+nx]))
				}
			}
			sort.Ints(window)
			out.Pix[y*out.Stride+x] = uint8(window[len(window)/2])
		}
	}
	return out
}

// upscaleIfSmall resamples the image up when either dimension is below
// minDimension; small screenshots recognize poorly at native size.
func upscaleIfSmall(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 || (width >= minDimension && height >= minDimension) {
		return img
	}

	scale := float64(minDimension) / float64(width)
	if s := float64(minDimension) / float64(height); s > scale {
		scale = s
	}

	dst := image.NewGray(image.Rect(0, 0, int(float64(width)*scale), int(float64(height)*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

func clampPixel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
