package cache

import (
	"testing"
	"time"
)

func TestPolicy_TTLMatrix(t *testing.T) {
	tests := []struct {
		name       string
		defaultTTL time.Duration
		maxTTL     time.Duration
		override   time.Duration
		want       time.Duration
	}{
		{"no override uses default", 5 * time.Minute, 10 * time.Minute, 0, 5 * time.Minute},
		{"override within max", 5 * time.Minute, 10 * time.Minute, 7 * time.Minute, 7 * time.Minute},
		{"override clamped", 5 * time.Minute, 10 * time.Minute, 15 * time.Minute, 10 * time.Minute},
		{"negative override uses default", 5 * time.Minute, 0, -time.Second, 5 * time.Minute},
		{"no max", 5 * time.Minute, 0, 2 * time.Hour, 2 * time.Hour},
		{"no expiry without max", 0, 0, 0, 0},
		{"no expiry clamped to max", 0, time.Hour, 0, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{DefaultTTL: tt.defaultTTL, MaxTTL: tt.maxTTL}
			if got := p.EffectiveTTL(tt.override); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.override, got, tt.want)
			}
		})
	}
}

func TestPolicy_Presets(t *testing.T) {
	p := DefaultPolicy()
	if p.DefaultTTL != 5*time.Minute || p.MaxTTL != time.Hour {
		t.Errorf("DefaultPolicy() = %+v", p)
	}
	if !p.ShouldCache() {
		t.Error("DefaultPolicy().ShouldCache() = false, want true")
	}

	d := DurablePolicy()
	if d.EffectiveTTL(0) != 0 {
		t.Errorf("DurablePolicy().EffectiveTTL(0) = %v, want 0", d.EffectiveTTL(0))
	}

	if NoCachePolicy().ShouldCache() {
		t.Error("NoCachePolicy().ShouldCache() = true, want false")
	}
}
