package main

import (
	"testing"

	. "github.com/KouCha61ue/MIndCore/internal/logging"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		debug      bool
		trace      bool
		want       int
		wantErr    bool
	}{
		{"default", "", false, false, LevelInfo, false},
		{"configured", "warn", false, false, LevelWarn, false},
		{"debug flag raises", "warn", true, false, LevelDebug, false},
		{"debug flag keeps trace", "trace", true, false, LevelTrace, false},
		{"trace flag", "info", false, true, LevelTrace, false},
		{"invalid", "loud", false, false, LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := logLevel(tt.configured, tt.debug, tt.trace)
			if (err != nil) != tt.wantErr {
				t.Fatalf("logLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("logLevel() = %d, want %d", got, tt.want)
			}
		})
	}
}
