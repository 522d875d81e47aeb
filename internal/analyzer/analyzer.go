package analyzer

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	// Register decoders for the formats screenshots arrive in.
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Metadata is a pure header/filesystem read of an image file.
type Metadata struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	FileSize int64  `json:"file_size"`
}

// ContentAnalysis holds derived image features.
type ContentAnalysis struct {
	DominantColors   []string `json:"dominant_colors"` // hex strings
	HasPotentialText bool     `json:"has_potential_text"`
	Complexity       float64  `json:"image_complexity"` // edge density in [0,1]
}

// ReadMetadata extracts image dimensions, format and file size without
// decoding pixel data. Returns an empty Metadata on failure.
func ReadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to stat image: %w", err)
	}

	return Metadata{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		FileSize: stat.Size(),
	}, nil
}

// AnalyzeContent derives dominant colors, a text-likelihood heuristic
// and an edge-density complexity score. Returns an empty analysis on
// failure; it never aborts a capture cycle.
func AnalyzeContent(path string) (ContentAnalysis, error) {
	img, err := loadImage(path)
	if err != nil {
		return ContentAnalysis{}, err
	}

	gray, width, height := grayscale(img)
	edges := sobelEdges(gray, width, height)

	edgeCount := 0
	for _, v := range edges {
		if v {
			edgeCount++
		}
	}

	analysis := ContentAnalysis{
		DominantColors: dominantColors(img, 5),
		Complexity:     float64(edgeCount) / float64(width*height),
	}
	analysis.HasPotentialText = countTextRegions(edges, width, height) > 10

	return analysis, nil
}

// Thumbnail writes a resized copy of src to dst, preserving aspect
// ratio within maxWidth x maxHeight and encoding losslessly.
func Thumbnail(src, dst string, maxWidth, maxHeight int) error {
	img, err := loadImage(src)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return fmt.Errorf("image %s has zero size", src)
	}

	scale := float64(maxWidth) / float64(srcW)
	if s := float64(maxHeight) / float64(srcH); s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}

	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	thumb := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, bounds, draw.Over, nil)

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, thumb); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
