package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"git.lost.host/meutraa/lanes/internal/audio"
	"git.lost.host/meutraa/lanes/internal/config"
	"git.lost.host/meutraa/lanes/internal/input"
	"git.lost.host/meutraa/lanes/internal/parser"
	"git.lost.host/meutraa/lanes/internal/render"
	"git.lost.host/meutraa/lanes/internal/session"
	"git.lost.host/meutraa/lanes/internal/theme"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); nil != err {
		logrus.Fatalln(err)
	}
}

// locate finds the chart and song to play. A directory is searched for
// both, a chart file is paired with a song next to it.
func locate(path string) (chart, song string, err error) {
	info, err := os.Stat(path)
	if nil != err {
		return "", "", err
	}
	dir := path
	if !info.IsDir() {
		chart = path
		dir = filepath.Dir(path)
	}

	if err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		switch strings.ToLower(filepath.Ext(info.Name())) {
		case ".osu", ".sm":
			if chart == "" {
				chart = p
			}
		case ".mp3", ".ogg", ".wav":
			if song == "" {
				song = p
			}
		}
		return nil
	}); nil != err {
		return "", "", fmt.Errorf("unable to walk song directory: %w", err)
	}

	if chart == "" || song == "" {
		return "", "", errors.New("unable to find a .osu or .sm chart and an .mp3/.ogg/.wav song")
	}
	return chart, song, nil
}

func run(args []string) error {
	cfg, err := config.Parse(args)
	if nil != err {
		return err
	}

	log := logrus.New()
	log.SetLevel(cfg.Level())

	chartFile, songFile, err := locate(cfg.Path)
	if nil != err {
		return err
	}

	psr, err := parser.ForFile(chartFile, log, cfg.StrictColumns, cfg.Difficulty)
	if nil != err {
		return err
	}
	beatmap, err := parser.ParseFile(psr, chartFile)
	if nil != err {
		return err
	}

	// Prefer the song the chart names
	if beatmap.AudioFilename != "" {
		named := filepath.Join(filepath.Dir(chartFile), beatmap.AudioFilename)
		if _, err := os.Stat(named); nil == err {
			songFile = named
		}
	}
	log.WithFields(logrus.Fields{"chart": chartFile, "song": songFile}).Info("opening")

	track, err := audio.Open(songFile)
	if nil != err {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	r := render.NewTerminal(os.Stdout, &theme.DefaultTheme{}, cfg.LeadTime)
	s, err := session.New(session.Options{
		Beatmap:             beatmap,
		Audio:               track,
		Bindings:            cfg.Bindings(),
		Sink:                r,
		Log:                 log,
		Windows:             cfg.Windows,
		Rules:               cfg.Rules(),
		LeadTime:            cfg.LeadTime,
		Delay:               cfg.Delay,
		Offset:              cfg.Offset,
		FramePeriod:         cfg.FramePeriod,
		GhostTapBreaksCombo: cfg.GhostTapBreaksCombo,
		NoFail:              cfg.NoFail,
	})
	if nil != err {
		track.Close()
		return err
	}
	s.OnOutcome(r.Judged)

	events := make(chan input.RawEvent, 128)
	go s.Input().Listen(ctx, events)

	// The terminal keyboard is always read so escape can quit
	keys := events
	if cfg.Input == "evdev" {
		if err := input.ReadEvdev(ctx, cfg.Device, log, events); nil != err {
			s.Close()
			return fmt.Errorf("unable to open %v: %w", cfg.Device, err)
		}
		keys = make(chan input.RawEvent, 128)
		go func() {
			for range keys {
			}
		}()
	}
	kb := &input.Keyboard{ReleaseAfter: cfg.ReleaseAfter, RepeatDelay: cfg.RepeatDelay, Log: log, Quit: cancel}
	if err := kb.Run(ctx, keys); nil != err {
		s.Close()
		return err
	}

	if err := s.Start(); nil != err {
		s.Close()
		return err
	}

	if err := r.Init(int(os.Stdout.Fd())); nil != err {
		s.Close()
		return err
	}
	runErr := s.Run(ctx)
	if err := r.Deinit(); nil != err {
		log.WithError(err).Warn("unable to restore terminal")
	}

	if err := s.Close(); nil != err {
		return err
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
