package commands

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseKeywordFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "plain list",
			input: "- AI Tools\n- cooking\n",
			want:  []string{"AI Tools", "cooking"},
		},
		{
			name:  "mapping",
			input: "keywords:\n  - fitness\n  - budget travel\n",
			want:  []string{"fitness", "budget travel"},
		},
		{
			name:  "empty document",
			input: "",
			want:  nil,
		},
		{
			name:    "scalar",
			input:   "just one keyword",
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   "keywords: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseKeywordFile([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadKeywordFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keywords.yaml")
	if err := os.WriteFile(path, []byte("- ai\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := readKeywordFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "ai" {
		t.Errorf("got %q", got)
	}

	if _, err := readKeywordFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
