package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexandria/alexandria/internal/classifier"
)

// ErrEngineUnavailable is returned at construction when the tesseract
// binary cannot be verified.
var ErrEngineUnavailable = errors.New("OCR engine unavailable")

const (
	probeTimeout = 5 * time.Second
	ocrTimeout   = 30 * time.Second
)

// Options configures the OCR engine.
type Options struct {
	Language            string
	ConfidenceThreshold int
	PreprocessImage     bool
}

// Result is the outcome of recognizing one image. A failed recognition
// yields the zero Result; errors never propagate into the capture
// cycle.
type Result struct {
	Text         string         `json:"text"`
	Confidence   float64        `json:"confidence"`
	HasText      bool           `json:"has_text"`
	HasSensitive bool           `json:"has_sensitive"`
	Structured   StructuredData `json:"structured_data"`
	WordCount    int            `json:"word_count"`
	CharCount    int            `json:"character_count"`
}

// Engine runs tesseract over preprocessed screenshots and filters the
// recognized tokens by confidence.
type Engine struct {
	opts Options
}

// NewEngine verifies tesseract is runnable and returns an engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := exec.CommandContext(ctx, "tesseract", "--version").Run(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	return &Engine{opts: opts}, nil
}

// Process recognizes text in the image at imagePath. Any recognition
// failure returns the zero Result together with the reason.
func (e *Engine) Process(imagePath string) (Result, error) {
	inputPath := imagePath

	if e.opts.PreprocessImage {
		preprocessed, err := preprocessToTemp(imagePath)
		if err != nil {
			// Preprocessing is an accuracy aid, not a requirement.
			log.Printf("Image preprocessing failed for %s: %v", imagePath, err)
		} else {
			inputPath = preprocessed
			defer os.Remove(preprocessed)
		}
	}

	tokens, err := e.recognize(inputPath)
	if err != nil {
		return Result{}, err
	}

	return resultFromTokens(filterTokens(tokens, e.opts.ConfidenceThreshold)), nil
}

// resultFromTokens assembles the Result for the confidence-passing
// tokens: space-joined text, mean confidence, the structured hierarchy
// and the sensitivity signal.
func resultFromTokens(kept []Token) Result {
	words := make([]string, 0, len(kept))
	confidenceSum := 0
	for _, tok := range kept {
		words = append(words, tok.Text)
		confidenceSum += tok.Confidence
	}

	text := strings.Join(words, " ")
	confidence := 0.0
	if len(kept) > 0 {
		confidence = float64(confidenceSum) / float64(len(kept))
	}

	return Result{
		Text:         text,
		Confidence:   confidence,
		HasText:      strings.TrimSpace(text) != "",
		HasSensitive: classifier.ContainsSensitive(text),
		Structured:   structureTokens(kept),
		WordCount:    len(kept),
		CharCount:    utf8.RuneCountInString(text),
	}
}

// recognize runs tesseract in TSV mode, assuming a single uniform block
// of text, and parses the token table.
func (e *Engine) recognize(imagePath string) ([]Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ocrTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "tesseract", imagePath, "stdout",
		"-l", e.opts.Language, "--psm", "6", "tsv")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	return parseTSV(stdout.String())
}

// parseTSV decodes tesseract's TSV output. Columns: level, page_num,
// block_num, par_num, line_num, word_num, left, top, width, height,
// conf, text. Only word-level rows (level 5) carry tokens.
func parseTSV(output string) ([]Token, error) {
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("empty tesseract output")
	}

	var tokens []Token
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}

		level, err := strconv.Atoi(fields[0])
		if err != nil || level != 5 {
			continue
		}

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}

		parNum, _ := strconv.Atoi(fields[3])
		lineNum, _ := strconv.Atoi(fields[4])
		left, _ := strconv.Atoi(fields[6])
		top, _ := strconv.Atoi(fields[7])
		width, _ := strconv.Atoi(fields[8])
		height, _ := strconv.Atoi(fields[9])

		tokens = append(tokens, Token{
			Text:       fields[11],
			Confidence: int(conf),
			Left:       left,
			Top:        top,
			Width:      width,
			Height:     height,
			LineNum:    lineNum,
			ParNum:     parNum,
		})
	}

	return tokens, nil
}
