package deploy

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"uttt-node/types"
)

const defaultWasmName = "app.wasm"

// buildStep compiles the site's wasm binary and assembles the dist dir:
// the wasm module, the toolchain's wasm_exec.js, and the static assets from
// the web dir. An index.html.tmpl asset is rendered with the run metadata;
// everything else is copied through.
type buildStep struct{}

func (buildStep) Name() string {
	return types.StepBuild
}

func (buildStep) Run(ctx context.Context, st *RunState) error {
	pkg := st.Cfg.Build.Package
	webDir := st.Cfg.Build.WebDir
	title := "uttt"
	wasmName := defaultWasmName
	if m := st.Manifest; m != nil {
		if m.Package != "" {
			pkg = m.Package
		}
		if m.WebDir != "" {
			webDir = m.WebDir
		}
		if m.Title != "" {
			title = m.Title
		}
		if m.Wasm.OutName != "" {
			wasmName = m.Wasm.OutName
		}
	}

	dist := st.Repo.DistPath()
	if err := os.RemoveAll(dist); err != nil {
		return types.Wrap(types.ErrBuildFailed, err)
	}
	if err := os.MkdirAll(dist, 0755); err != nil {
		return types.Wrap(types.ErrBuildFailed, err)
	}
	st.DistDir = dist

	wasmOut := filepath.Join(dist, wasmName)
	cmd := exec.CommandContext(ctx, st.GoBin, "build", "-o", wasmOut, pkg)
	cmd.Dir = st.SourceDir
	cmd.Env = append(os.Environ(),
		"GOOS=js",
		"GOARCH=wasm",
		"CGO_ENABLED=0",
		fmt.Sprintf("GOMODCACHE=%s", filepath.Join(st.GoCacheDir, "mod")),
		fmt.Sprintf("GOCACHE=%s", filepath.Join(st.GoCacheDir, "build")),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return types.Wrapf(types.ErrBuildFailed, "go build: %v: %s", err, bytes.TrimSpace(out))
	}

	if st.WasmOpt != "" {
		opt := exec.CommandContext(ctx, st.WasmOpt, "-Oz", wasmOut, "-o", wasmOut+".opt")
		if out, err := opt.CombinedOutput(); err != nil {
			return types.Wrapf(types.ErrBuildFailed, "wasm-opt: %v: %s", err, bytes.TrimSpace(out))
		}
		if err := os.Rename(wasmOut+".opt", wasmOut); err != nil {
			return types.Wrap(types.ErrBuildFailed, err)
		}
	}

	if err := copyFile(st.WasmExec, filepath.Join(dist, "wasm_exec.js")); err != nil {
		return types.Wrap(types.ErrBuildFailed, err)
	}

	if err := copyWebAssets(filepath.Join(st.SourceDir, webDir), dist, pageData{
		Title:  title,
		Wasm:   wasmName,
		Commit: st.Record.Commit,
	}); err != nil {
		return types.Wrap(types.ErrBuildFailed, err)
	}

	log.Infof("built %s into %s", pkg, dist)
	return nil
}

type pageData struct {
	Title  string
	Wasm   string
	Commit string
}

func copyWebAssets(webDir string, dist string, data pageData) error {
	return filepath.Walk(webDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(webDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dist, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if filepath.Ext(rel) == ".tmpl" {
			return renderTemplate(path, target[:len(target)-len(".tmpl")], data)
		}
		return copyFile(path, target)
	})
}

func renderTemplate(src string, dest string, data pageData) error {
	tmpl, err := template.ParseFiles(src)
	if err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err = tmpl.Execute(f, data); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}

func copyFile(src string, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return err
	}
	return out.Close()
}
