package analyzer

import (
	"fmt"
	"image"
	"math"
	"math/rand"
)

const (
	// maxColorSamples bounds the k-means input so full-resolution
	// screenshots stay cheap to cluster.
	maxColorSamples = 10000

	// sobelThreshold marks a pixel as an edge when the gradient
	// magnitude exceeds it.
	sobelThreshold = 100
)

type rgb struct {
	r, g, b float64
}

// dominantColors clusters a pixel sample with k-means and returns the
// cluster centers as hex strings.
func dominantColors(img image.Image, k int) []string {
	samples := samplePixels(img, maxColorSamples)
	if len(samples) == 0 {
		return []string{}
	}
	if len(samples) < k {
		k = len(samples)
	}

	centers := kmeans(samples, k, 20)

	colors := make([]string, 0, len(centers))
	for _, c := range centers {
		colors = append(colors, fmt.Sprintf("#%02x%02x%02x",
			clampByte(c.r), clampByte(c.g), clampByte(c.b)))
	}
	return colors
}

func samplePixels(img image.Image, maxSamples int) []rgb {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return nil
	}

	step := 1
	if total > maxSamples {
		step = int(math.Sqrt(float64(total) / float64(maxSamples)))
		if step < 1 {
			step = 1
		}
	}

	samples := make([]rgb, 0, maxSamples)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			samples = append(samples, rgb{
				r: float64(r >> 8),
				g: float64(g >> 8),
				b: float64(b >> 8),
			})
		}
	}
	return samples
}

// kmeans runs Lloyd's algorithm with a fixed iteration cap. Seeding is
// deterministic so repeated analyses of the same image agree.
func kmeans(samples []rgb, k, iterations int) []rgb {
	rng := rand.New(rand.NewSource(1))

	centers := make([]rgb, k)
	for i := range centers {
		centers[i] = samples[rng.Intn(len(samples))]
	}

	assignments := make([]int, len(samples))
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, s := range samples {
			best, bestDist := 0, math.MaxFloat64
			for j, c := range centers {
				d := colorDist(s, c)
				if d < bestDist {
					best, bestDist = j, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		sums := make([]rgb, k)
		counts := make([]int, k)
		for i, s := range samples {
			c := assignments[i]
			sums[c].r += s.r
			sums[c].g += s.g
			sums[c].b += s.b
			counts[c]++
		}
		for j := range centers {
			if counts[j] == 0 {
				// Re-seed empty clusters to keep k centers alive.
				centers[j] = samples[rng.Intn(len(samples))]
				continue
			}
			centers[j] = rgb{
				r: sums[j].r / float64(counts[j]),
				g: sums[j].g / float64(counts[j]),
				b: sums[j].b / float64(counts[j]),
			}
		}

		if !changed {
			break
		}
	}

	return centers
}

func colorDist(a, b rgb) float64 {
	dr, dg, db := a.r-b.r, a.g-b.g, a.b-b.b
	return dr*dr + dg*dg + db*db
}

func clampByte(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v)
}

// grayscale flattens an image to a luma buffer.
func grayscale(img image.Image) ([]uint8, int, int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			luma := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
			gray[y*width+x] = uint8(luma)
		}
	}
	return gray, width, height
}

// sobelEdges thresholds the Sobel gradient magnitude into an edge mask.
func sobelEdges(gray []uint8, width, height int) []bool {
	edges := make([]bool, width*height)
	if width < 3 || height < 3 {
		return edges
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			at := func(dx, dy int) int {
				return int(gray[(y+dy)*width+(x+dx)])
			}
			gx := -at(-1, -1) - 2*at(-1, 0) - at(-1, 1) +
				at(1, -1) + 2*at(1, 0) + at(1, 1)
			gy := -at(-1, -1) - 2*at(0, -1) - at(1, -1) +
				at(-1, 1) + 2*at(0, 1) + at(1, 1)

			if math.Sqrt(float64(gx*gx+gy*gy)) > sobelThreshold {
				edges[y*width+x] = true
			}
		}
	}
	return edges
}

// countTextRegions labels connected edge components and counts those
// whose bounding box looks like a run of text: aspect ratio inside
// (0.2, 20), wider than 10px and taller than 5px.
func countTextRegions(edges []bool, width, height int) int {
	visited := make([]bool, len(edges))
	regions := 0

	var stack []int
	for start := range edges {
		if !edges[start] || visited[start] {
			continue
		}

		minX, minY := width, height
		maxX, maxY := 0, 0

		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%width, idx/width
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nidx := ny*width + nx
				if edges[nidx] && !visited[nidx] {
					visited[nidx] = true
					stack = append(stack, nidx)
				}
			}
		}

		w := maxX - minX + 1
		h := maxY - minY + 1
		aspect := float64(w) / float64(h)
		if aspect > 0.2 && aspect < 20 && w > 10 && h > 5 {
			regions++
		}
	}

	return regions
}
