package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{name: "info by default", debug: false, wantDebug: false},
		{name: "debug mode", debug: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log, err := NewProductionLogger("keyword-rotator-api", tt.debug)
			if err != nil {
				t.Fatalf("NewProductionLogger() error = %v", err)
			}
			if got := log.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if !log.Core().Enabled(zapcore.InfoLevel) {
				t.Error("info level disabled")
			}
		})
	}
}

func TestNewCLILogger(t *testing.T) {
	t.Parallel()

	quiet, err := NewCLILogger(false)
	if err != nil {
		t.Fatalf("NewCLILogger(false) error = %v", err)
	}
	if quiet.Core().Enabled(zapcore.InfoLevel) {
		t.Error("quiet CLI logger should hide info")
	}
	if !quiet.Core().Enabled(zapcore.WarnLevel) {
		t.Error("quiet CLI logger should show warnings")
	}

	verbose, err := NewCLILogger(true)
	if err != nil {
		t.Fatalf("NewCLILogger(true) error = %v", err)
	}
	if !verbose.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose CLI logger should show debug")
	}
}

func TestSync_NilLogger(t *testing.T) {
	t.Parallel()
	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) = %v", err)
	}
}
