package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTextReplacer_ReplaceText(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		rules        []ReplacementRule
		want         string
		wantCount    int
		wantModified bool
	}{
		{
			name:    "simple_replacement",
			content: `mouse01\mouse01_cam1.avi`,
			rules: []ReplacementRule{
				{FromText: "mouse01", ToText: "rat07"},
			},
			want:         `rat07\rat07_cam1.avi`,
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "multiple_rules",
			content: "Hello World",
			rules: []ReplacementRule{
				{FromText: "Hello", ToText: "Hi"},
				{FromText: "World", ToText: "Universe"},
			},
			want:         "Hi Universe",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "no_match",
			content: "Hello World",
			rules: []ReplacementRule{
				{FromText: "Goodbye", ToText: "Hi"},
			},
			want: "Hello World",
		},
		{
			name:    "prefix_rule",
			content: `a\a_cam.avi`,
			rules: []ReplacementRule{
				{FromText: "a", ToText: "B", Prefix: true},
			},
			want:         `B\B_cam.avi`,
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "empty_rule_skipped",
			content: "abc",
			rules: []ReplacementRule{
				{FromText: "", ToText: "x"},
			},
			want: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSimpleTextReplacer().ReplaceText(tt.content, tt.rules)
			assert.Equal(t, tt.want, got.Modified)
			assert.Equal(t, tt.content, got.Original)
			assert.Equal(t, tt.wantCount, got.ReplacementCount)
			assert.Equal(t, tt.wantModified, got.WasModified)
		})
	}
}

func TestSimpleTextReplacer_ValidateRules(t *testing.T) {
	r := NewSimpleTextReplacer()

	require.NoError(t, r.ValidateRules([]ReplacementRule{{FromText: "a", ToText: "b"}}))
	assert.ErrorContains(t, r.ValidateRules([]ReplacementRule{{FromText: "", ToText: "b"}}), "from_text is required")
	assert.ErrorContains(t, r.ValidateRules([]ReplacementRule{{FromText: "a", ToText: `b\c`}}), "path separator")
}

func TestPathComponents(t *testing.T) {
	assert.Equal(t, "abc.0001", FirstComponent(`abc.0001\abc.0001_cam1.avi`))
	assert.Equal(t, "abc.0001_cam1.avi", LastComponent(`abc.0001\abc.0001_cam1.avi`))
	assert.Equal(t, "plain.avi", FirstComponent("plain.avi"))
	assert.Equal(t, "plain.avi", LastComponent("plain.avi"))
}

func TestRelabel(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		label     string
		want      string
		wantCount int
	}{
		{name: "prefixed_file", path: `old\old_cam2.avi`, label: "new", want: `new\new_cam2.avi`, wantCount: 2},
		{name: "plain_file", path: `old\cam2.avi`, label: "new", want: `new\cam2.avi`, wantCount: 1},
		{name: "label_inside_file_name", path: `a\a_cam.avi`, label: "B", want: `B\B_cam.avi`, wantCount: 2},
		{name: "label_only_inside_file_name", path: `x\cam_x.avi`, label: "y", want: `y\cam_x.avi`, wantCount: 1},
		{name: "dotted_label", path: `abc.0001\abc.0001_cam1.avi`, label: "abc.0002", want: `abc.0002\abc.0002_cam1.avi`, wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Relabel(tt.path, tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Modified)
			assert.Equal(t, tt.wantCount, got.ReplacementCount)
			assert.True(t, got.WasModified)
		})
	}

	_, err := Relabel(`old\cam2.avi`, `new\x`)
	assert.ErrorContains(t, err, "path separator")
}
