package simulation

import "testing"

func TestDefaultWorkers(t *testing.T) {
	if n := DefaultWorkers(); n < 1 {
		t.Errorf("Expected at least one worker, got %d", n)
	}
}

func TestHostInfo_String(t *testing.T) {
	h := HostInfo{LogicalCores: 8, TotalRAMGB: 16}
	if got := h.String(); got != "8 logical cores, 16 GB RAM" {
		t.Errorf("Unexpected host string %q", got)
	}
	h.CPUModel = "Test CPU"
	h.ClockGHz = 3.2
	if got := h.String(); got != "Test CPU @ 3.20 GHz, 8 logical cores, 16 GB RAM" {
		t.Errorf("Unexpected host string %q", got)
	}
}
