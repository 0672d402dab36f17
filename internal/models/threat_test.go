package models

import "testing"

func TestSeverityPriorityOrdering(t *testing.T) {
	sevs := Severities()
	for i := 1; i < len(sevs); i++ {
		if sevs[i].Priority() <= sevs[i-1].Priority() {
			t.Errorf("expected %s to outrank %s", sevs[i], sevs[i-1])
		}
	}

	if p := Severity("bogus").Priority(); p != 0 {
		t.Errorf("unknown severity priority = %d, want 0", p)
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in   string
		want Source
		ok   bool
	}{
		{"weather", SourceWeather, true},
		{" Seismic ", SourceSeismic, true},
		{"airquality", SourceAirQuality, true},
		{"outage", SourceOutage, true},
		{"nws", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSource(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseSource(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLocationUnmapped(t *testing.T) {
	if !(Location{AreaDesc: "Statewide"}).Unmapped() {
		t.Error("zero coordinates should be unmapped")
	}
	if (Location{Lat: 34.05, Lng: -118.24}).Unmapped() {
		t.Error("real coordinates should be mapped")
	}
}

func TestThreatSimulated(t *testing.T) {
	if !(Threat{ID: "sim-123"}).Simulated() {
		t.Error("sim- prefix should mark a simulated threat")
	}
	if (Threat{ID: "usgs-abc"}).Simulated() {
		t.Error("feed ids are not simulated")
	}
}
