package config

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigCommentRoundTrip(t *testing.T) {
	commented, err := ConfigComment(DefaultNode())
	require.NoError(t, err)

	// every value line of the default config is commented out
	for _, line := range strings.Split(string(commented), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '[' || trimmed[0] == '#' {
			continue
		}
		t.Fatalf("uncommented line in default config: %q", line)
	}

	// a fully commented config decodes back to the defaults
	got, err := FromReader(strings.NewReader(string(commented)), DefaultNode())
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultNode(), got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigUpdatePreservesChanges(t *testing.T) {
	cfg := DefaultNode()
	cfg.Source.Remote = "https://example.com/uttt.git"
	cfg.Publish.PagesBranch = "pages"

	out, err := ConfigUpdate(cfg, DefaultNode(), true)
	require.NoError(t, err)

	got, err := FromReader(strings.NewReader(string(out)), DefaultNode())
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("UTTT_SOURCE_BRANCH", "release")
	defer os.Unsetenv("UTTT_SOURCE_BRANCH")

	got, err := FromReader(strings.NewReader(""), DefaultNode())
	require.NoError(t, err)

	cfg, ok := got.(*Node)
	require.True(t, ok)
	require.Equal(t, "release", cfg.Source.Branch)
}
