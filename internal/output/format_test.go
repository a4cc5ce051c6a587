package output

import (
	"bytes"
	"strings"
	"testing"

	"relbench/internal/compare"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"human", FormatHuman, false},
		{"", FormatHuman, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"toml", FormatTOML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestEncode(t *testing.T) {
	summary := compare.Summary{
		Tools:     []compare.ToolSummary{{Label: "Jarviz", Total: 3, Unique: 1}},
		Shared:    2,
		Union:     3,
		Histogram: []compare.Bucket{{Multiplicity: 2, Count: 1}},
	}

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatJSON, []string{`"shared": 2`, `"label": "Jarviz"`}},
		{FormatYAML, []string{"shared: 2", "- label: Jarviz", "multiplicity: 2"}},
		{FormatTOML, []string{"shared = 2", "[[tools]]", `label = "Jarviz"`, "[[histogram]]"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, tt.format, summary); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Encode(%s) missing %q:\n%s", tt.format, want, buf.String())
				}
			}
		})
	}
}

func TestEncode_Human(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, FormatHuman, map[string]int{"a": 1})
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("Encode(human) error = %v, want unsupported format", err)
	}
}
