package classifier

// stopWords is a fixed English stop-word set shared by both keyword
// extraction paths.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		"the", "and", "or", "but", "in", "on", "at", "to", "for", "of",
		"with", "by", "from", "up", "about", "into", "through", "during",
		"before", "after", "above", "below", "out", "off", "down", "under",
		"again", "further", "then", "once", "here", "there", "when",
		"where", "why", "how", "all", "any", "both", "each", "few", "more",
		"most", "other", "some", "such", "only", "own", "same", "than",
		"too", "very", "can", "will", "just", "should", "now", "this",
		"that", "these", "those", "is", "are", "was", "were", "been",
		"being", "have", "has", "had", "not", "you", "your",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}
