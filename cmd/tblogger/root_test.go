package main

import (
	"io"
	"strings"
	"testing"

	"github.com/example/go-tblogger/internal/config"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"demo", "inspect", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlags(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"config", "name", "log-tensorboard-dir", "audio-sampling-rate", "dist-rank"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s persistent flag to be registered", name)
		}
	}
}

func TestSetupLogger_AcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := setupLogger(level); err != nil {
			t.Errorf("setupLogger(%q) = %v; want nil", level, err)
		}
	}
}

func TestSetupLogger_RejectsUnknownLevel(t *testing.T) {
	if err := setupLogger("not-a-level"); err == nil {
		t.Error("setupLogger(not-a-level) = nil; want error")
	}
}

func TestRootCmd_RejectsUnknownLogLevel(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()
	root.SetArgs([]string{"--log-level=verbose", "--log-tensorboard-dir", t.TempDir(), "doctor"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	if err == nil {
		t.Fatal("Execute() = nil; want error for log level verbose")
	}
	if !strings.Contains(err.Error(), "log.level") {
		t.Errorf("Execute() error = %v; want it to name log.level", err)
	}
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Name != "nuwave" {
		t.Errorf("unexpected Name: %q", got.Name)
	}
}
