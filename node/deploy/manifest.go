package deploy

import (
	"os"
	"path/filepath"

	"uttt-node/types"

	"gopkg.in/yaml.v2"
)

// SiteManifest is the optional uttt-site.yaml at the root of the source
// tree. It lets a repository override build settings without touching the
// node config.
type SiteManifest struct {
	Title   string `yaml:"title"`
	Package string `yaml:"package"`
	WebDir  string `yaml:"webDir"`
	Wasm    struct {
		Opt     bool   `yaml:"opt"`
		OutName string `yaml:"outName"`
	} `yaml:"wasm"`
	Publish struct {
		Branch string `yaml:"branch"`
		Cname  string `yaml:"cname"`
	} `yaml:"publish"`
}

// LoadManifest reads the manifest from the source tree. A missing file is
// not an error: the node config supplies every default.
func LoadManifest(sourceDir string, name string) (*SiteManifest, error) {
	if name == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(filepath.Join(sourceDir, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, types.Wrap(types.ErrInvalidManifest, err)
	}

	var m SiteManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, types.Wrap(types.ErrInvalidManifest, err)
	}
	return &m, nil
}
