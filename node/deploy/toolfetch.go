package deploy

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"uttt-node/types"
)

// toolFetchStep installs binaryen's wasm-opt into the repo bin/ dir. The
// step is a no-op when no version is configured or the installed binary
// already reports the wanted version.
type toolFetchStep struct{}

func (toolFetchStep) Name() string {
	return types.StepToolFetch
}

func (toolFetchStep) Run(ctx context.Context, st *RunState) error {
	version := st.Cfg.Build.WasmOptVersion
	if version == "" {
		log.Debug("wasm-opt disabled, skipping tool fetch")
		return nil
	}
	binPath := filepath.Join(st.Repo.BinPath(), "wasm-opt")
	if installedWasmOptVersion(ctx, binPath) == version {
		st.WasmOpt = binPath
		return nil
	}

	url := binaryenReleaseUrl(version, runtime.GOOS, runtime.GOARCH)
	archive := filepath.Join(st.Repo.BinPath(), fmt.Sprintf("binaryen-%s.tar.gz", version))
	defer os.Remove(archive) //nolint:errcheck

	log.Infof("downloading %s", url)
	if err := downloadFile(ctx, url, archive); err != nil {
		return types.Wrap(types.ErrToolFetchFailed, err)
	}
	if err := verifyDigest(archive, st.Cfg.Build.WasmOptDigest); err != nil {
		return types.Wrap(types.ErrToolFetchFailed, err)
	}
	if err := extractWasmOpt(archive, binPath); err != nil {
		return types.Wrap(types.ErrToolFetchFailed, err)
	}

	st.WasmOpt = binPath
	return nil
}

// installedWasmOptVersion probes the binary, returning "" when it is absent
// or unusable.
func installedWasmOptVersion(ctx context.Context, binPath string) string {
	out, err := exec.CommandContext(ctx, binPath, "--version").Output()
	if err != nil {
		return ""
	}
	// output looks like "wasm-opt version 110 (...)"
	fields := strings.Fields(string(out))
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func binaryenReleaseUrl(version string, goos string, goarch string) string {
	osToken := goos
	if goos == "darwin" {
		osToken = "macos"
	}
	archToken := goarch
	if goarch == "amd64" {
		archToken = "x86_64"
	}
	return fmt.Sprintf(
		"https://github.com/WebAssembly/binaryen/releases/download/version_%s/binaryen-version_%s-%s-%s.tar.gz",
		version, version, archToken, osToken)
}

// extractWasmOpt pulls the single bin/wasm-opt entry out of the release
// tarball and installs it executable at dest.
func extractWasmOpt(archive string, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	gr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gr.Close() //nolint:errcheck

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasSuffix(hdr.Name, "/bin/wasm-opt") {
			continue
		}

		out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
		if err != nil {
			return err
		}
		if _, err = io.Copy(out, tr); err != nil { //nolint:gosec
			out.Close() //nolint:errcheck
			return err
		}
		return out.Close()
	}
	return fmt.Errorf("bin/wasm-opt not found in %s", archive)
}
