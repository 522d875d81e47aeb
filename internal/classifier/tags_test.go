package classifier

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/alexandria/alexandria/pkg/compositor"
)

func TestSizeCategory(t *testing.T) {
	tests := []struct {
		name     string
		geometry string
		want     string
	}{
		{name: "small window", geometry: "640x400+0+0", want: "small"},
		{name: "upper edge of small", geometry: "599x500+10+10", want: "small"},
		{name: "exactly 300k is medium", geometry: "600x500+0+0", want: "medium"},
		{name: "medium window", geometry: "1024x768+0+0", want: "medium"},
		{name: "exactly 1M is large", geometry: "1000x1000+0+0", want: "large"},
		{name: "large window", geometry: "1600x900+0+0", want: "large"},
		{name: "full hd is xlarge", geometry: "1920x1080+0+0", want: "xlarge"},
		{name: "4k is xlarge", geometry: "3840x2160+0+0", want: "xlarge"},
		{name: "no offsets", geometry: "800x600", want: "medium"},
		{name: "malformed geometry", geometry: "fullscreen", want: ""},
		{name: "empty geometry", geometry: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sizeCategory(tt.geometry); got != tt.want {
				t.Errorf("sizeCategory(%q) = %q, want %q", tt.geometry, got, tt.want)
			}
		})
	}
}

func TestRankByFrequency(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		max   int
		want  []string
	}{
		{
			name:  "orders by count",
			words: []string{"alpha", "beta", "beta", "gamma", "beta", "gamma"},
			max:   10,
			want:  []string{"beta", "gamma", "alpha"},
		},
		{
			name:  "ties keep first-seen order",
			words: []string{"zebra", "apple", "zebra", "apple"},
			max:   10,
			want:  []string{"zebra", "apple"},
		},
		{
			name:  "truncates to max",
			words: []string{"one", "two", "three"},
			max:   2,
			want:  []string{"one", "two"},
		},
		{
			name:  "empty input yields empty slice",
			words: nil,
			max:   5,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rankByFrequency(tt.words, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("rankByFrequency(%v, %d) = %v, want %v", tt.words, tt.max, got, tt.want)
			}
		})
	}
}

func TestCleanAppName(t *testing.T) {
	tagger := NewTagger()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain name", input: "gedit", want: "gedit"},
		{name: "reverse domain prefix", input: "org.mozilla.firefox", want: "mozilla"},
		{name: "desktop suffix", input: "firefox.desktop", want: "firefox"},
		{name: "version suffix", input: "python3", want: "python"},
		{name: "dotted version suffix", input: "gimp-2.10", want: "gimp"},
		{name: "uppercase normalized", input: "Firefox", want: "firefox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tagger.cleanAppName(tt.input); got != tt.want {
				t.Errorf("cleanAppName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateTagsWindowMetadata(t *testing.T) {
	tagger := NewTagger()

	info := compositor.WindowInfo{
		AppID:     "firefox",
		Title:     "",
		Workspace: "3",
		Geometry:  "1920x1080+0+0",
	}

	tags := tagger.GenerateTags("", info, DefaultMaxTags)

	wantTags := []string{"app:firefox", "workspace:3", "geometry:1920x1080+0+0", "size:xlarge"}
	for _, want := range wantTags {
		if !containsTag(tags, want) {
			t.Errorf("GenerateTags() = %v, missing %q", tags, want)
		}
	}
}

func TestGenerateTagsSkipsDuplicateClass(t *testing.T) {
	tagger := NewTagger()

	info := compositor.WindowInfo{
		AppID:       "gedit",
		WindowClass: "gedit",
	}

	tags := tagger.GenerateTags("", info, DefaultMaxTags)
	for _, tag := range tags {
		if strings.HasPrefix(tag, "class:") {
			t.Errorf("GenerateTags() = %v, class tag present despite matching app id", tags)
		}
	}
}

func TestGenerateTagsDeduplicates(t *testing.T) {
	tagger := NewTagger()

	info := compositor.WindowInfo{AppID: "gedit"}
	tags := tagger.GenerateTags("", info, DefaultMaxTags)

	seen := make(map[string]int)
	for _, tag := range tags {
		seen[tag]++
		if seen[tag] > 1 {
			t.Errorf("GenerateTags() produced duplicate tag %q in %v", tag, tags)
		}
	}
}

func TestGenerateTagsRespectsCap(t *testing.T) {
	tagger := NewTagger()

	// Long repetitive text plus rich window metadata produces more
	// candidate tags than the cap allows.
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "document editor window screen keyboard mouse terminal browser%d ", i)
	}

	info := compositor.WindowInfo{
		AppID:     "gedit",
		Title:     "annual budget planning document review",
		Workspace: "2",
		Geometry:  "1280x720+0+0",
	}

	tags := tagger.GenerateTags(sb.String(), info, 5)
	if len(tags) > 5 {
		t.Errorf("GenerateTags() returned %d tags, want at most 5: %v", len(tags), tags)
	}

	tags = tagger.GenerateTags(sb.String(), info, 0)
	if len(tags) > DefaultMaxTags {
		t.Errorf("GenerateTags() with zero cap returned %d tags, want at most %d", len(tags), DefaultMaxTags)
	}
}

func TestExtractKeywordsEmptyText(t *testing.T) {
	tagger := NewTagger()

	for _, text := range []string{"", "   ", "\n\t"} {
		got := tagger.ExtractKeywords(text, 10)
		if len(got) != 0 {
			t.Errorf("ExtractKeywords(%q) = %v, want empty", text, got)
		}
	}
}

func TestBasicKeywords(t *testing.T) {
	got := basicKeywords("the terminal shows the terminal output and an error", 10)

	if len(got) == 0 {
		t.Fatal("basicKeywords() returned no keywords")
	}
	if got[0] != "terminal" {
		t.Errorf("basicKeywords() first keyword = %q, want %q (most frequent)", got[0], "terminal")
	}
	for _, word := range got {
		if _, stop := stopWords[word]; stop {
			t.Errorf("basicKeywords() kept stop word %q", word)
		}
		if len(word) < 3 {
			t.Errorf("basicKeywords() kept short token %q", word)
		}
	}
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
