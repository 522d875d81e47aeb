package classifier

import (
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"

	"github.com/alexandria/alexandria/pkg/compositor"
)

// DefaultMaxTags caps the tag list of a memory.
const DefaultMaxTags = 25

var (
	wordPattern     = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
	geometryPattern = regexp.MustCompile(`^(\d+)x(\d+)`)
	appSuffix       = regexp.MustCompile(`\.(exe|app|desktop)$`)
	appPrefix       = regexp.MustCompile(`^(org\.|com\.|net\.)`)
	appVersion      = regexp.MustCompile(`[-_]?\d+(\.\d+)*$`)
	appSeparators   = regexp.MustCompile(`[-_.]`)
)

// Tagger derives keyword tags from OCR text and window metadata. The
// linguistic path (POS filtering plus lemmatization) degrades to plain
// frequency ranking when tagging fails.
type Tagger struct {
	lemmatizer *golem.Lemmatizer
}

// NewTagger builds a tagger, loading the English lemma dictionary.
func NewTagger() *Tagger {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		log.Printf("Lemmatizer unavailable, tags will keep surface forms: %v", err)
		lemmatizer = nil
	}
	return &Tagger{lemmatizer: lemmatizer}
}

// GenerateTags combines OCR-text keywords with window-derived tags,
// deduplicates preserving first-seen order, and truncates to maxTotal.
func (t *Tagger) GenerateTags(ocrText string, info compositor.WindowInfo, maxTotal int) []string {
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTags
	}

	var all []string
	if ocrText != "" {
		all = append(all, t.ExtractKeywords(ocrText, 10)...)
	}
	all = append(all, t.windowTags(info)...)

	seen := make(map[string]struct{}, len(all))
	unique := make([]string, 0, len(all))
	for _, tag := range all {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		unique = append(unique, tag)
	}

	if len(unique) > maxTotal {
		unique = unique[:maxTotal]
	}
	return unique
}

// ExtractKeywords returns up to max keywords from text, ranked by
// frequency. Tokens are filtered to alphabetic words of interesting
// grammatical roles and normalized to their base form.
func (t *Tagger) ExtractKeywords(text string, max int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	doc, err := prose.NewDocument(strings.ToLower(text),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		log.Printf("Linguistic analysis failed, using basic extraction: %v", err)
		return basicKeywords(text, max)
	}

	var keywords []string
	for _, tok := range doc.Tokens() {
		if !isAlpha(tok.Text) || len(tok.Text) <= 2 {
			continue
		}
		if _, stop := stopWords[tok.Text]; stop {
			continue
		}
		if !interestingPOS(tok.Tag) {
			continue
		}
		keywords = append(keywords, t.lemma(tok.Text))
	}

	return rankByFrequency(keywords, max)
}

// interestingPOS keeps nouns, verbs and adjectives (Penn Treebank
// tags).
func interestingPOS(tag string) bool {
	return strings.HasPrefix(tag, "NN") ||
		strings.HasPrefix(tag, "VB") ||
		strings.HasPrefix(tag, "JJ")
}

func (t *Tagger) lemma(word string) string {
	if t.lemmatizer == nil {
		return word
	}
	return t.lemmatizer.Lemma(word)
}

// basicKeywords is the degraded path: alphabetic tokens minus stop
// words, frequency ranked.
func basicKeywords(text string, max int) []string {
	var words []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		words = append(words, word)
	}
	return rankByFrequency(words, max)
}

// rankByFrequency orders words by descending count; ties keep
// first-seen order.
func rankByFrequency(words []string, max int) []string {
	counts := make(map[string]int, len(words))
	var order []string
	for _, word := range words {
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > max {
		order = order[:max]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

// windowTags derives app:/title:/class:/workspace:/geometry:/size: tags
// from window metadata.
func (t *Tagger) windowTags(info compositor.WindowInfo) []string {
	var tags []string

	if info.AppID != "" {
		if app := t.cleanAppName(info.AppID); app != "" {
			tags = append(tags, "app:"+app)
			if lemma := t.lemma(app); lemma != app {
				tags = append(tags, "app:"+lemma)
			}
		}
	}

	if info.Title != "" {
		for _, keyword := range t.ExtractKeywords(info.Title, 5) {
			tags = append(tags, "title:"+keyword)
		}
	}

	if info.WindowClass != "" && info.WindowClass != info.AppID {
		if class := t.cleanAppName(info.WindowClass); class != "" {
			tags = append(tags, "class:"+class)
		}
	}

	if info.Workspace != "" {
		tags = append(tags, "workspace:"+info.Workspace)
	}

	if info.Geometry != "" {
		tags = append(tags, "geometry:"+info.Geometry)
		if size := sizeCategory(info.Geometry); size != "" {
			tags = append(tags, "size:"+size)
		}
	}

	return tags
}

// cleanAppName normalizes an application identifier: reverse-domain
// prefixes, version numbers and packaging suffixes are stripped, and
// the leading word is kept in base form.
func (t *Tagger) cleanAppName(name string) string {
	cleaned := strings.ToLower(name)
	cleaned = appSuffix.ReplaceAllString(cleaned, "")
	cleaned = appPrefix.ReplaceAllString(cleaned, "")
	cleaned = appVersion.ReplaceAllString(cleaned, "")
	cleaned = appSeparators.ReplaceAllString(cleaned, " ")

	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return strings.TrimSpace(cleaned)
	}
	return t.lemma(words[0])
}

// sizeCategory buckets a window by pixel area parsed from its geometry
// string. Buckets are half-open: [0,300k) small, [300k,1M) medium,
// [1M,2M) large, [2M,inf) xlarge.
func sizeCategory(geometry string) string {
	match := geometryPattern.FindStringSubmatch(geometry)
	if match == nil {
		return ""
	}

	width := atoiSafe(match[1])
	height := atoiSafe(match[2])
	area := width * height

	switch {
	case area < 300000:
		return "small"
	case area < 1000000:
		return "medium"
	case area < 2000000:
		return "large"
	default:
		return "xlarge"
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
