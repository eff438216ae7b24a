package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	if err := os.MkdirAll(filepath.Join(root, "intent"), 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing subdir", filepath.Join(root, "intent"), false},
		{"new file in subdir", filepath.Join(root, "intent", "intent_stat.json"), false},
		{"new nested dir", filepath.Join(root, "a", "b", "c.txt"), false},
		{"root itself", root, false},
		{"dot dot", filepath.Join(root, "..", "x.json"), true},
		{"sibling dir", filepath.Join(outside, "x.json"), true},
		{"through symlink", filepath.Join(link, "x.json"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, root)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) err = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "unknown"},
		{"baseline, entity, test.json", "baseline_entity_test.json"},
		{"Add To-Do", "Add_To-Do"},
		{"../../etc/passwd", "etc_passwd"},
		{"???", "unknown"},
		{"café", "caf"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
