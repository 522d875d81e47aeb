package models

import (
	"reflect"
	"testing"
)

func TestTagsList(t *testing.T) {
	var m Memory

	if got := m.TagsList(); len(got) != 0 {
		t.Errorf("TagsList() on empty column = %v, want empty", got)
	}

	m.SetTagsList([]string{"app:firefox", "workspace:1"})
	if got := m.TagsList(); !reflect.DeepEqual(got, []string{"app:firefox", "workspace:1"}) {
		t.Errorf("TagsList() = %v after SetTagsList", got)
	}

	// A corrupted column degrades to no tags rather than an error.
	m.Tags = "{broken"
	if got := m.TagsList(); len(got) != 0 {
		t.Errorf("TagsList() on corrupt column = %v, want empty", got)
	}
}

func TestDominantColorsList(t *testing.T) {
	var m Memory

	m.SetDominantColorsList([]string{"#1e1e2e", "#cdd6f4"})
	if got := m.DominantColorsList(); !reflect.DeepEqual(got, []string{"#1e1e2e", "#cdd6f4"}) {
		t.Errorf("DominantColorsList() = %v after set", got)
	}

	m.DominantColors = "not json"
	if got := m.DominantColorsList(); len(got) != 0 {
		t.Errorf("DominantColorsList() on corrupt column = %v, want empty", got)
	}
}
