package deploy

import (
	"context"
	"os"
	"path/filepath"

	"uttt-node/types"
)

// markerStep drops the .nojekyll marker into dist so the pages host serves
// the files verbatim instead of running them through jekyll. A CNAME file is
// written when the manifest names a custom domain.
type markerStep struct{}

func (markerStep) Name() string {
	return types.StepMarker
}

func (markerStep) Run(ctx context.Context, st *RunState) error {
	if err := os.WriteFile(filepath.Join(st.DistDir, ".nojekyll"), nil, 0644); err != nil {
		return types.Wrap(types.ErrBuildFailed, err)
	}
	if st.Manifest != nil && st.Manifest.Publish.Cname != "" {
		cname := st.Manifest.Publish.Cname + "\n"
		if err := os.WriteFile(filepath.Join(st.DistDir, "CNAME"), []byte(cname), 0644); err != nil {
			return types.Wrap(types.ErrBuildFailed, err)
		}
	}
	return nil
}
