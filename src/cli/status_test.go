package cli

import (
	"bytes"
	"strings"
	"testing"

	"wrtcli/src/wrtapi"
)

func sampleStatus() wrtapi.SystemStatus {
	return wrtapi.SystemStatus{
		Hostname: "gw",
		Model:    "Generic Router",
		Uptime:   90060,
		Load:     []float64{131072, 0, 0},
		Memory:   wrtapi.Memory{Total: 128 << 20, Free: 64 << 20},
	}
}

func TestPrintStatus_HumanReadable(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, wrtapi.Device{Name: "router1"}, sampleStatus(), false)
	s := out.String()
	if !strings.Contains(s, "Uptime:   1d 1h 1m") {
		t.Fatalf("uptime should be humanized:\n%s", s)
	}
	if !strings.Contains(s, "Load:     2.00") {
		t.Fatalf("load should be descaled:\n%s", s)
	}
	if !strings.Contains(s, "Total: 128.0 MiB") {
		t.Fatalf("memory should be humanized:\n%s", s)
	}
}

func TestPrintStatus_RawValuesUnscaled(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, wrtapi.Device{Name: "router1"}, sampleStatus(), true)
	s := out.String()
	if !strings.Contains(s, "Uptime:   90060 seconds") {
		t.Fatalf("raw uptime should be in seconds:\n%s", s)
	}
	if !strings.Contains(s, "Load:     131072") {
		t.Fatalf("raw load must not be descaled:\n%s", s)
	}
	if !strings.Contains(s, "Total: 134217728") {
		t.Fatalf("raw memory should be in bytes:\n%s", s)
	}
}

func TestProtocolOverrideFlagRegistered(t *testing.T) {
	var out bytes.Buffer
	if newStatusCmd(&out).Flags().Lookup("protocol") == nil {
		t.Fatal("status command should expose --protocol")
	}
	if newRebootCmd(&out).Flags().Lookup("protocol") == nil {
		t.Fatal("reboot command should expose --protocol")
	}
}
