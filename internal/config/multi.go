package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrNoConfig = errors.New("no config selected")

const DefaultLabel = "Default"

func ConfigRoot() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "mangameta")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mangameta")
	}

	// Linux/macOS default
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mangameta")
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func ensureDirs() error {
	if err := os.MkdirAll(ConfigRoot(), 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(ConfigsDir(), 0755); err != nil {
		return err
	}
	return nil
}

func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	label, err := CurrentLabel()
	if err != nil || label == "" {
		return "", ErrNoConfig
	}

	return filepath.Join(ConfigsDir(), label+".yaml"), nil
}

func labelPath(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return "", fmt.Errorf("invalid label %q", label)
	}

	return filepath.Join(ConfigsDir(), label+".yaml"), nil
}

// ConfigPathByLabel returns the path of an existing profile.
func ConfigPathByLabel(label string) (string, error) {
	path, err := labelPath(label)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("config %q does not exist", label)
	}

	return path, nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	activeLabel, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == activeLabel,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	if err := ensureDirs(); err != nil {
		return err
	}
	if _, err := ConfigPathByLabel(label); err != nil {
		return err
	}

	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

// AddConfig imports srcPath as a new profile after checking it parses.
func AddConfig(label, srcPath string) error {
	dst, err := labelPath(label)
	if err != nil {
		return err
	}
	if err := ensureDirs(); err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("config %q already exists", label)
	}

	cfg, err := loadYAML(srcPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return SaveYAML(cfg, dst)
}

func CreateEmptyConfig(label string) (string, error) {
	path, err := labelPath(label)
	if err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, nil
}

func RenameConfig(oldLabel, newLabel string) error {
	if oldLabel == DefaultLabel {
		return errors.New("cannot rename the Default config")
	}
	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}
	newPath, err := labelPath(newLabel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	active, _ := CurrentLabel()
	if active == oldLabel {
		return os.WriteFile(CurrentLabelFile(), []byte(newLabel), 0644)
	}

	return nil
}

// RemoveConfig deletes a profile. Removing the active profile makes
// Default active again; switched reports that.
func RemoveConfig(label string) (switched bool, err error) {
	if strings.TrimSpace(label) == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return false, err
	}

	active, _ := CurrentLabel()
	if active == label {
		if err := SwitchConfig(DefaultLabel); err != nil {
			return false, fmt.Errorf("failed switching to Default: %w", err)
		}
		switched = true
	}

	return switched, os.Remove(path)
}

// ResetConfig overwrites a profile with the defaults. With keepSitesDir the
// profile's sites_dir survives the reset.
func ResetConfig(label string, keepSitesDir bool) (*Config, string, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return nil, "", err
	}

	def := DefaultConfig()
	if keepSitesDir {
		if old, err := loadYAML(path); err == nil && old.SitesDir != "" {
			def.SitesDir = old.SitesDir
		}
	}

	if err := SaveYAML(def, path); err != nil {
		return nil, "", err
	}

	return def, path, nil
}

func InitDefaultConfig() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	defPath := filepath.Join(ConfigsDir(), DefaultLabel+".yaml")

	if _, err := os.Stat(defPath); err == nil {
		_ = os.WriteFile(CurrentLabelFile(), []byte(DefaultLabel), 0644)
		return defPath, os.ErrExist
	}

	if err := SaveYAML(DefaultConfig(), defPath); err != nil {
		return "", err
	}

	_ = os.WriteFile(CurrentLabelFile(), []byte(DefaultLabel), 0644)
	return defPath, nil
}
