// Package config reads the command line and an optional ini file.
//
// Values in the ini file replace the built in defaults and flags replace both.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"git.lost.host/meutraa/lanes/internal/input"
	"git.lost.host/meutraa/lanes/internal/score"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/ini.v1"
)

const version = "0.3.0"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Path       string // Song directory or chart file
	File       string // ini file the defaults were read from
	Difficulty string // StepMania difficulty to play

	Offset      time.Duration // Added to every note, positive plays notes later
	Delay       time.Duration // Time before the song starts
	LeadTime    time.Duration // How long a note is visible before its hit time
	FramePeriod time.Duration
	Windows     game.Windows

	Keys   string // One key per lane
	Input  string // keyboard or evdev
	Device string // evdev device

	// Terminal keys are released after this much time without a repeat,
	// or RepeatDelay before their first repeat
	ReleaseAfter time.Duration
	RepeatDelay  time.Duration

	BadBreaksCombo      bool
	GhostTapBreaksCombo bool
	StrictColumns       bool
	NoFail              bool

	LogLevel string
}

func Default() Config {
	return Config{
		Delay:          1500 * time.Millisecond,
		LeadTime:       800 * time.Millisecond,
		FramePeriod:    time.Millisecond,
		Windows:        game.DefaultWindows(),
		Keys:           "dfjk",
		Input:          "keyboard",
		Device:         "/dev/input/event0",
		ReleaseAfter:   input.DefaultReleaseAfter,
		RepeatDelay:    input.DefaultRepeatDelay,
		BadBreaksCombo: true,
		LogLevel:       "info",
	}
}

// configFile finds the value of --config without parsing anything else
func configFile(args []string) string {
	for i, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		}
	}
	return ""
}

// Load reads the [timing], [rules] and [input] sections of an ini file
func (c *Config) Load(file string) error {
	f, err := ini.Load(file)
	if nil != err {
		return fmt.Errorf("unable to load %v: %w", file, err)
	}
	c.File = file

	timing := f.Section("timing")
	c.Offset = timing.Key("offset").MustDuration(c.Offset)
	c.Delay = timing.Key("delay").MustDuration(c.Delay)
	c.LeadTime = timing.Key("lead-time").MustDuration(c.LeadTime)
	c.FramePeriod = timing.Key("frame-period").MustDuration(c.FramePeriod)
	c.Windows.Perfect = timing.Key("perfect").MustDuration(c.Windows.Perfect)
	c.Windows.Good = timing.Key("good").MustDuration(c.Windows.Good)
	c.Windows.Bad = timing.Key("bad").MustDuration(c.Windows.Bad)
	c.Windows.Miss = timing.Key("miss").MustDuration(c.Windows.Miss)

	rules := f.Section("rules")
	c.BadBreaksCombo = rules.Key("bad-breaks-combo").MustBool(c.BadBreaksCombo)
	c.GhostTapBreaksCombo = rules.Key("ghost-tap-breaks-combo").MustBool(c.GhostTapBreaksCombo)
	c.StrictColumns = rules.Key("strict-columns").MustBool(c.StrictColumns)
	c.NoFail = rules.Key("no-fail").MustBool(c.NoFail)

	keys := f.Section("input")
	c.Keys = keys.Key("keys").MustString(c.Keys)
	c.Input = keys.Key("source").MustString(c.Input)
	c.Device = keys.Key("device").MustString(c.Device)
	c.ReleaseAfter = keys.Key("release-after").MustDuration(c.ReleaseAfter)
	c.RepeatDelay = keys.Key("repeat-delay").MustDuration(c.RepeatDelay)
	c.Difficulty = f.Section("").Key("difficulty").MustString(c.Difficulty)
	c.LogLevel = f.Section("").Key("log-level").MustString(c.LogLevel)
	return nil
}

func duration(d time.Duration) string {
	return d.String()
}

func boolean(b bool) string {
	return strconv.FormatBool(b)
}

// Parse builds the configuration from args, which exclude the program name
func Parse(args []string) (*Config, error) {
	c := Default()
	if file := configFile(args); file != "" {
		if err := c.Load(file); nil != err {
			return nil, err
		}
	}

	app := kingpin.New("lanes", "Four lane rhythm game for the terminal")
	app.Version(version)
	app.Arg("path", "Song directory or chart file").Required().ExistingFileOrDirVar(&c.Path)
	app.Flag("config", "ini file with defaults").StringVar(&c.File)
	app.Flag("difficulty", "StepMania difficulty").Default(c.Difficulty).StringVar(&c.Difficulty)
	app.Flag("offset", "Global offset").Default(duration(c.Offset)).Short('o').DurationVar(&c.Offset)
	app.Flag("delay", "Start delay").Default(duration(c.Delay)).Short('d').DurationVar(&c.Delay)
	app.Flag("lead-time", "Time a note is visible before it should be hit").Default(duration(c.LeadTime)).DurationVar(&c.LeadTime)
	app.Flag("frame-period", "Update frame period").Default(duration(c.FramePeriod)).Short('p').DurationVar(&c.FramePeriod)
	app.Flag("perfect", "Perfect window").Default(duration(c.Windows.Perfect)).DurationVar(&c.Windows.Perfect)
	app.Flag("good", "Good window").Default(duration(c.Windows.Good)).DurationVar(&c.Windows.Good)
	app.Flag("bad", "Bad window").Default(duration(c.Windows.Bad)).DurationVar(&c.Windows.Bad)
	app.Flag("miss", "Time after which an unhit note is missed").Default(duration(c.Windows.Miss)).DurationVar(&c.Windows.Miss)
	app.Flag("keys", "Keys for each lane").Default(c.Keys).Short('k').StringVar(&c.Keys)
	app.Flag("input", "Input source").Default(c.Input).EnumVar(&c.Input, "keyboard", "evdev")
	app.Flag("device", "evdev keyboard device").Default(c.Device).StringVar(&c.Device)
	app.Flag("release-after", "Time without a key repeat before a terminal key counts as released").Default(duration(c.ReleaseAfter)).DurationVar(&c.ReleaseAfter)
	app.Flag("repeat-delay", "Time before a held terminal key starts repeating").Default(duration(c.RepeatDelay)).DurationVar(&c.RepeatDelay)
	app.Flag("bad-breaks-combo", "A bad judgement resets the combo").Default(boolean(c.BadBreaksCombo)).BoolVar(&c.BadBreaksCombo)
	app.Flag("ghost-tap-breaks-combo", "A press that hits nothing resets the combo").Default(boolean(c.GhostTapBreaksCombo)).BoolVar(&c.GhostTapBreaksCombo)
	app.Flag("strict-columns", "Reject notes outside the four lanes").Default(boolean(c.StrictColumns)).BoolVar(&c.StrictColumns)
	app.Flag("no-fail", "Keep playing with no health left").Default(boolean(c.NoFail)).BoolVar(&c.NoFail)
	app.Flag("log-level", "Log level").Default(c.LogLevel).EnumVar(&c.LogLevel, "trace", "debug", "info", "warning", "error")

	if _, err := app.Parse(args); nil != err {
		return nil, err
	}
	return &c, c.Validate()
}

func (c *Config) Validate() error {
	if err := c.Windows.Validate(); nil != err {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if n := len(c.Bindings()); n != game.Columns {
		return fmt.Errorf("%w: %v keys given for %v lanes", ErrInvalid, n, game.Columns)
	}
	if c.LeadTime < c.Windows.Miss {
		return fmt.Errorf("%w: lead time %v is shorter than the miss window %v", ErrInvalid, c.LeadTime, c.Windows.Miss)
	}
	if c.FramePeriod <= 0 {
		return fmt.Errorf("%w: frame period must be positive", ErrInvalid)
	}
	if c.ReleaseAfter <= 0 || c.RepeatDelay <= 0 {
		return fmt.Errorf("%w: key release times must be positive", ErrInvalid)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); nil != err {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func (c *Config) Bindings() []game.Binding {
	bindings := []game.Binding{}
	for _, r := range c.Keys {
		bindings = append(bindings, game.Binding(string(r)))
	}
	return bindings
}

func (c *Config) Rules() score.Rules {
	rules := score.DefaultRules()
	rules.BadBreaksCombo = c.BadBreaksCombo
	return rules
}

func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if nil != err {
		return logrus.InfoLevel
	}
	return level
}
