package ocr

import "strings"

// Token is one recognized word with its confidence, bounding box and
// layout indices as reported by the recognizer.
type Token struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Left       int    `json:"left"`
	Top        int    `json:"top"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	LineNum    int    `json:"-"`
	ParNum     int    `json:"-"`
}

// BoundingBox is an axis-aligned box around a group of tokens.
type BoundingBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Group is a line or paragraph: a contiguous run of tokens sharing a
// layout index.
type Group struct {
	Text  string      `json:"text"`
	Words []Token     `json:"words"`
	BBox  BoundingBox `json:"bbox"`
}

// StructuredData is the word/line/paragraph hierarchy reconstructed
// from confidence-passing tokens.
type StructuredData struct {
	Words           []Token `json:"words"`
	Lines           []Group `json:"lines"`
	Paragraphs      []Group `json:"paragraphs"`
	TotalWords      int     `json:"total_words"`
	TotalLines      int     `json:"total_lines"`
	TotalParagraphs int     `json:"total_paragraphs"`
}

// filterTokens keeps tokens whose confidence meets the threshold and
// whose trimmed text is non-empty. Filtering happens before boundary
// detection so rejected tokens cannot split or merge lines.
func filterTokens(tokens []Token, threshold int) []Token {
	kept := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		trimmed := strings.TrimSpace(tok.Text)
		if tok.Confidence >= threshold && trimmed != "" {
			tok.Text = trimmed
			kept = append(kept, tok)
		}
	}
	return kept
}

// structureTokens walks kept tokens in order, starting a new line or
// paragraph whenever the respective index changes between consecutive
// tokens.
func structureTokens(tokens []Token) StructuredData {
	data := StructuredData{
		Words:      tokens,
		Lines:      []Group{},
		Paragraphs: []Group{},
	}

	var currentLine, currentPar []Token
	prevLine, prevPar := -1, -1

	for _, tok := range tokens {
		if prevLine != -1 && tok.LineNum != prevLine && len(currentLine) > 0 {
			data.Lines = append(data.Lines, makeGroup(currentLine))
			currentLine = nil
		}
		currentLine = append(currentLine, tok)

		if prevPar != -1 && tok.ParNum != prevPar && len(currentPar) > 0 {
			data.Paragraphs = append(data.Paragraphs, makeGroup(currentPar))
			currentPar = nil
		}
		currentPar = append(currentPar, tok)

		prevLine = tok.LineNum
		prevPar = tok.ParNum
	}

	if len(currentLine) > 0 {
		data.Lines = append(data.Lines, makeGroup(currentLine))
	}
	if len(currentPar) > 0 {
		data.Paragraphs = append(data.Paragraphs, makeGroup(currentPar))
	}

	data.TotalWords = len(data.Words)
	data.TotalLines = len(data.Lines)
	data.TotalParagraphs = len(data.Paragraphs)
	return data
}

func makeGroup(tokens []Token) Group {
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, tok.Text)
	}
	group := Group{
		Text:  strings.Join(words, " "),
		Words: append([]Token(nil), tokens...),
		BBox:  unionBox(tokens),
	}
	return group
}

// unionBox is the axis-aligned union of the tokens' boxes.
func unionBox(tokens []Token) BoundingBox {
	if len(tokens) == 0 {
		return BoundingBox{}
	}

	left, top := tokens[0].Left, tokens[0].Top
	right := tokens[0].Left + tokens[0].Width
	bottom := tokens[0].Top + tokens[0].Height

	for _, tok := range tokens[1:] {
		if tok.Left < left {
			left = tok.Left
		}
		if tok.Top < top {
			top = tok.Top
		}
		if r := tok.Left + tok.Width; r > right {
			right = r
		}
		if b := tok.Top + tok.Height; b > bottom {
			bottom = b
		}
	}

	return BoundingBox{
		Left:   left,
		Top:    top,
		Width:  right - left,
		Height: bottom - top,
	}
}
