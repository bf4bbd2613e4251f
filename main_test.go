package main

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); nil != err {
			t.Fatal(err)
		}
	}
}

func TestLocateDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "song.ogg", "chart.osu", "cover.png")

	chart, song, err := locate(dir)
	if nil != err {
		t.Fatal(err)
	}
	if chart != filepath.Join(dir, "chart.osu") || song != filepath.Join(dir, "song.ogg") {
		t.Log(chart, song)
		t.Fail()
	}
}

func TestLocateChartFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.sm", "b.sm", "song.mp3")

	chart, _, err := locate(filepath.Join(dir, "b.sm"))
	if nil != err {
		t.Fatal(err)
	}
	if chart != filepath.Join(dir, "b.sm") {
		t.Fatal(chart)
	}
}

func TestLocateMissingSong(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "chart.osu")
	if _, _, err := locate(dir); nil == err {
		t.Fatal("expected an error")
	}
}
