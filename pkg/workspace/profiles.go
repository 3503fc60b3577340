package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/botpack/botpack/pkg/boterrors"
)

// Profiles maps a global profile name to an absolute workspace root, as
// registered by `botpack init --global --profile <name>`.
type Profiles map[string]string

// LoadProfiles reads the global profile registry. A missing file is not an
// error — it reads as an empty registry.
func LoadProfiles() (Profiles, error) {
	path, err := profilesFile()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Profiles{}, nil
	}
	if err != nil {
		return nil, boterrors.New(boterrors.KindGeneric, path, err)
	}
	var profiles Profiles
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, boterrors.New(boterrors.KindParse, path, err)
	}
	return profiles, nil
}

// SetProfile registers name -> root in the global profile registry,
// creating the registry file if absent.
func SetProfile(name, root string) error {
	path, err := profilesFile()
	if err != nil {
		return err
	}
	profiles, err := LoadProfiles()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return boterrors.New(boterrors.KindGeneric, root, err)
	}
	profiles[name] = abs

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return boterrors.New(boterrors.KindGeneric, path, err)
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return boterrors.New(boterrors.KindGeneric, path, err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
