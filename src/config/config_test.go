package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"wrtcli/src/config"
	"wrtcli/src/wrtapi"
)

func TestManager_DeviceRoundTrip(t *testing.T) {
	m, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	d := wrtapi.Device{Name: "router1", Addr: "10.0.0.1", User: "root", Password: "secret", Protocol: wrtapi.ProtocolUbus}
	if err := m.AddDevice(d); err != nil {
		t.Fatalf("add device: %v", err)
	}

	got, err := m.GetDevice("router1")
	if err != nil {
		t.Fatalf("get device: %v", err)
	}
	if got != d {
		t.Fatalf("got %+v, want %+v", got, d)
	}
}

func TestManager_GetUnknownDevice(t *testing.T) {
	m, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.GetDevice("ghost"); err == nil {
		t.Fatal("expected error for unknown device")
	}
}

func TestManager_AddReplacesExisting(t *testing.T) {
	m, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	d := wrtapi.Device{Name: "router1", Addr: "10.0.0.1", User: "root", Password: "old", Protocol: wrtapi.ProtocolUbus}
	if err := m.AddDevice(d); err != nil {
		t.Fatalf("add: %v", err)
	}
	d.Password = "new"
	d.Protocol = wrtapi.ProtocolLuci
	if err := m.AddDevice(d); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	got, err := m.GetDevice("router1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Password != "new" || got.Protocol != wrtapi.ProtocolLuci {
		t.Fatalf("entry was not replaced: %+v", got)
	}
	devices, err := m.ListDevices()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected a single entry, got %d", len(devices))
	}
}

func TestManager_ListSortedByName(t *testing.T) {
	m, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := m.AddDevice(wrtapi.Device{Name: name, Addr: "10.0.0.1", User: "root", Password: "x", Protocol: wrtapi.ProtocolUbus}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	devices, err := m.ListDevices()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, d := range devices {
		if d.Name != want[i] {
			t.Fatalf("devices not sorted: %v", devices)
		}
	}
}

func TestManager_BackupDirCreated(t *testing.T) {
	root := t.TempDir()
	m, err := config.New(root)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	dir, err := m.BackupDir("router1")
	if err != nil {
		t.Fatalf("backup dir: %v", err)
	}
	if dir != filepath.Join(root, "backups", "router1") {
		t.Fatalf("unexpected dir %s", dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("backup dir should exist: %v", err)
	}
}
