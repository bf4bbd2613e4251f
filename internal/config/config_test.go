package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"git.lost.host/meutraa/lanes/internal/input"
	"github.com/sirupsen/logrus"
)

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Parse([]string{dir})
	if nil != err {
		t.Fatal(err)
	}
	if c.Path != dir || c.Keys != "dfjk" || c.Windows != game.DefaultWindows() || c.LeadTime != 800*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if !c.BadBreaksCombo || c.GhostTapBreaksCombo || c.Input != "keyboard" {
		t.Fatalf("unexpected rule defaults %+v", c)
	}
	if c.Level() != logrus.InfoLevel {
		t.Fatal(c.Level())
	}
	if c.ReleaseAfter != input.DefaultReleaseAfter || c.RepeatDelay != input.DefaultRepeatDelay {
		t.Fatalf("unexpected key release defaults %+v", c)
	}
}

func TestFlags(t *testing.T) {
	c, err := Parse([]string{
		t.TempDir(),
		"--offset=-15ms",
		"--keys", "asdf",
		"--perfect", "40ms",
		"--no-bad-breaks-combo",
		"--ghost-tap-breaks-combo",
		"--input", "evdev",
		"--log-level", "debug",
		"--release-after", "80ms",
	})
	if nil != err {
		t.Fatal(err)
	}
	if c.Offset != -15*time.Millisecond || c.Keys != "asdf" || c.Windows.Perfect != 40*time.Millisecond {
		t.Fatalf("flags not applied %+v", c)
	}
	if c.BadBreaksCombo || !c.GhostTapBreaksCombo || c.Rules().BadBreaksCombo {
		t.Fatalf("rules not applied %+v", c)
	}
	if c.Input != "evdev" || c.Level() != logrus.DebugLevel || c.ReleaseAfter != 80*time.Millisecond {
		t.Fatalf("unexpected %+v", c)
	}
	bindings := c.Bindings()
	if len(bindings) != 4 || bindings[0] != "a" || bindings[3] != "f" {
		t.Fatal(bindings)
	}
}

const file = `log-level = warning

[timing]
offset = 20ms
miss = 180ms

[rules]
bad-breaks-combo = false
no-fail = true

[input]
keys = zxcv
release-after = 150ms
repeat-delay = 700ms
`

func TestFileLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lanes.ini")
	if err := os.WriteFile(path, []byte(file), 0o644); nil != err {
		t.Fatal(err)
	}

	c, err := Parse([]string{dir, "--config", path, "--offset", "5ms"})
	if nil != err {
		t.Fatal(err)
	}
	// Flags beat the file, the file beats the defaults
	if c.Offset != 5*time.Millisecond {
		t.Log("offset", c.Offset)
		t.Fail()
	}
	if c.Windows.Miss != 180*time.Millisecond || c.Keys != "zxcv" || c.BadBreaksCombo || !c.NoFail {
		t.Logf("%+v", c)
		t.Fail()
	}
	if c.ReleaseAfter != 150*time.Millisecond || c.RepeatDelay != 700*time.Millisecond {
		t.Logf("%+v", c)
		t.Fail()
	}
	if c.Level() != logrus.WarnLevel || c.File != path {
		t.Logf("%+v", c)
		t.Fail()
	}
}

func TestMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Parse([]string{dir, "--config=" + filepath.Join(dir, "none.ini")}); nil == err {
		t.Fatal("expected an error")
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"unordered windows": func(c *Config) { c.Windows.Good = 10 * time.Millisecond },
		"three keys":        func(c *Config) { c.Keys = "dfj" },
		"short lead time":   func(c *Config) { c.LeadTime = 100 * time.Millisecond },
		"no frame period":   func(c *Config) { c.FramePeriod = 0 },
		"log level":         func(c *Config) { c.LogLevel = "loud" },
		"no release":        func(c *Config) { c.ReleaseAfter = 0 },
	}
	for name, change := range tests {
		c := Default()
		change(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Log(name, err)
			t.Fail()
		}
	}
	c := Default()
	if err := c.Validate(); nil != err {
		t.Fatal(err)
	}
}

func TestMissingPath(t *testing.T) {
	if _, err := Parse([]string{filepath.Join(t.TempDir(), "nothing")}); nil == err {
		t.Fatal("expected an error")
	}
}
