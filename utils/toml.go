package utils

import (
	"bytes"
	"os"

	"uttt-node/node/config"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/xerrors"
)

// FromFile loads config from the given path, falling back to def when the
// file does not exist yet.
func FromFile(path string, def interface{}) (interface{}, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		return def, nil
	case err != nil:
		return nil, err
	}

	defer file.Close() //nolint:errcheck
	return config.FromReader(file, def)
}

func NodeBytes(cfg interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	e := toml.NewEncoder(buf)
	if err := e.Encode(cfg); err != nil {
		return nil, xerrors.Errorf("encoding node config: %w", err)
	}

	return buf.Bytes(), nil
}
