// Package config manages the tool's state directory and the device
// registry.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"wrtcli/src/wrtapi"
)

const (
	dirName      = ".wrtcli"
	registryFile = "devices.yaml"
	backupsDir   = "backups"
)

// Manager owns the config root: the device registry file and the per-device
// backup directories underneath it.
type Manager struct {
	Root string
}

type registry struct {
	Devices map[string]wrtapi.Device `yaml:"devices"`
}

// New returns a Manager rooted at dir, or at ~/.wrtcli when dir is empty.
// The root is created if missing.
func New(dir string) (*Manager, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}
	if err := os.MkdirAll(filepath.Join(dir, backupsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &Manager{Root: dir}, nil
}

func (m *Manager) registryPath() string {
	return filepath.Join(m.Root, registryFile)
}

// BackupDir returns (creating if needed) the backup directory for a device.
func (m *Manager) BackupDir(device string) (string, error) {
	dir := filepath.Join(m.Root, backupsDir, device)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir for device %q: %w", device, err)
	}
	return dir, nil
}

func (m *Manager) load() (registry, error) {
	reg := registry{Devices: map[string]wrtapi.Device{}}
	data, err := os.ReadFile(m.registryPath())
	if os.IsNotExist(err) {
		return reg, nil
	}
	if err != nil {
		return reg, fmt.Errorf("read device registry: %w", err)
	}
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return reg, fmt.Errorf("parse device registry: %w", err)
	}
	if reg.Devices == nil {
		reg.Devices = map[string]wrtapi.Device{}
	}
	return reg, nil
}

func (m *Manager) save(reg registry) error {
	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("serialize device registry: %w", err)
	}
	tmp := m.registryPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write device registry: %w", err)
	}
	if err := os.Rename(tmp, m.registryPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write device registry: %w", err)
	}
	return nil
}

// AddDevice registers a device, replacing any existing entry with the same
// name.
func (m *Manager) AddDevice(d wrtapi.Device) error {
	reg, err := m.load()
	if err != nil {
		return err
	}
	reg.Devices[d.Name] = d
	return m.save(reg)
}

// GetDevice looks a device up by name.
func (m *Manager) GetDevice(name string) (wrtapi.Device, error) {
	reg, err := m.load()
	if err != nil {
		return wrtapi.Device{}, err
	}
	d, ok := reg.Devices[name]
	if !ok {
		return wrtapi.Device{}, fmt.Errorf("device %q not found; register it with 'wrtcli add'", name)
	}
	return d, nil
}

// ListDevices returns all registered devices sorted by name.
func (m *Manager) ListDevices() ([]wrtapi.Device, error) {
	reg, err := m.load()
	if err != nil {
		return nil, err
	}
	out := make([]wrtapi.Device, 0, len(reg.Devices))
	for _, d := range reg.Devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
