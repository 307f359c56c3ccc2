// Package project locates and reads the bu.toml project manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file searched for.
const FileName = "bu.toml"

// Manifest is a decoded bu.toml together with where it was found.
type Manifest struct {
	Path   string
	Root   string
	Config Config

	meta toml.MetaData
}

type Config struct {
	Package   PackageConfig   `toml:"package"`
	Build     BuildConfig     `toml:"build"`
	Toolchain ToolchainConfig `toml:"toolchain"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type BuildConfig struct {
	OutDir  string `toml:"out_dir"`
	Timeout string `toml:"timeout"`
	KeepTmp bool   `toml:"keep_tmp"`
}

type ToolchainConfig struct {
	Clang  string `toml:"clang"`
	Opt    string `toml:"opt"`
	Llc    string `toml:"llc"`
	Linker string `toml:"linker"`
}

// Find walks upward from startDir and returns the first bu.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes the manifest governing startDir. The boolean is
// false when there is none, which is not an error.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// LoadFile decodes and validates one manifest.
func LoadFile(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	m := &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg, meta: meta}
	if _, _, err := m.Timeout(); err != nil {
		return nil, err
	}
	return m, nil
}

// OutDir returns [build].out_dir resolved against the manifest directory.
func (m *Manifest) OutDir() (string, bool) {
	dir := strings.TrimSpace(m.Config.Build.OutDir)
	if dir == "" {
		return "", false
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(m.Root, filepath.FromSlash(dir))
	}
	return dir, true
}

// Timeout parses [build].timeout. "0" disables the subprocess deadline.
func (m *Manifest) Timeout() (time.Duration, bool, error) {
	if !m.meta.IsDefined("build", "timeout") {
		return 0, false, nil
	}
	raw := strings.TrimSpace(m.Config.Build.Timeout)
	if raw == "0" {
		return 0, true, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, false, fmt.Errorf("%s: invalid [build].timeout %q", m.Path, raw)
	}
	return d, true, nil
}

// KeepTmp reports [build].keep_tmp and whether it was set.
func (m *Manifest) KeepTmp() (keep, set bool) {
	return m.Config.Build.KeepTmp, m.meta.IsDefined("build", "keep_tmp")
}
