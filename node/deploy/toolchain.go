package deploy

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"uttt-node/types"
	"uttt-node/utils"
)

// toolchainStep resolves the go toolchain for the run. The host toolchain is
// used when it matches Build.GoVersion (or no pin is set); otherwise the
// pinned release is downloaded once into toolchains/<version> and reused.
type toolchainStep struct{}

func (toolchainStep) Name() string {
	return types.StepToolchain
}

func (toolchainStep) Run(ctx context.Context, st *RunState) error {
	goBin := st.Cfg.Build.GoBin
	if goBin == "" {
		var err error
		goBin, err = exec.LookPath("go")
		if err != nil {
			return types.Wrap(types.ErrToolchainFailed, err)
		}
	}

	version, err := goVersion(ctx, goBin)
	if err != nil {
		return types.Wrap(types.ErrToolchainFailed, err)
	}

	if want := st.Cfg.Build.GoVersion; want != "" && version != want {
		pinned := filepath.Join(st.Repo.ToolchainPath(), want, "go", "bin", "go")
		if _, err = os.Stat(pinned); os.IsNotExist(err) {
			if err = fetchToolchain(ctx, st.Repo.ToolchainPath(), want); err != nil {
				return err
			}
		} else if err != nil {
			return types.Wrap(types.ErrToolchainFailed, err)
		}

		goBin = pinned
		if version, err = goVersion(ctx, goBin); err != nil {
			return types.Wrap(types.ErrToolchainFailed, err)
		}
		if version != want {
			return types.Wrapf(types.ErrToolchainFailed, "pinned toolchain reports go%s, want go%s", version, want)
		}
	}

	goroot, err := goEnv(ctx, goBin, "GOROOT")
	if err != nil {
		return types.Wrap(types.ErrToolchainFailed, err)
	}
	wasmExec := filepath.Join(goroot, "misc", "wasm", "wasm_exec.js")
	if _, err = os.Stat(wasmExec); err != nil {
		return types.Wrapf(types.ErrToolchainFailed, "wasm_exec.js not found under GOROOT %s", goroot)
	}

	st.GoBin = goBin
	st.WasmExec = wasmExec
	log.Infof("using go%s at %s", version, goBin)
	return nil
}

// goVersion returns the bare version, e.g. "1.19.3".
func goVersion(ctx context.Context, goBin string) (string, error) {
	out, err := exec.CommandContext(ctx, goBin, "version").Output()
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(out))
	if len(fields) < 3 || !strings.HasPrefix(fields[2], "go") {
		return "", fmt.Errorf("unexpected go version output: %q", strings.TrimSpace(string(out)))
	}
	return strings.TrimPrefix(fields[2], "go"), nil
}

func goEnv(ctx context.Context, goBin string, key string) (string, error) {
	out, err := exec.CommandContext(ctx, goBin, "env", key).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// fetchToolchain downloads the official release archive and unpacks it to
// root/<version>, yielding root/<version>/go/bin/go.
func fetchToolchain(ctx context.Context, root string, version string) error {
	url := fmt.Sprintf("https://go.dev/dl/go%s.%s-%s.tar.gz", version, runtime.GOOS, runtime.GOARCH)
	archive := filepath.Join(root, fmt.Sprintf("go%s.tar.gz", version))
	defer os.Remove(archive) //nolint:errcheck

	log.Infof("downloading go toolchain %s", url)
	if err := downloadFile(ctx, url, archive); err != nil {
		return types.Wrap(types.ErrToolchainFailed, err)
	}

	f, err := os.Open(archive)
	if err != nil {
		return types.Wrap(types.ErrToolchainFailed, err)
	}
	defer f.Close() //nolint:errcheck

	if err := utils.UnpackDir(f, filepath.Join(root, version)); err != nil {
		return types.Wrap(types.ErrToolchainFailed, err)
	}
	return nil
}
