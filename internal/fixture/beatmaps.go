// Package fixture holds small charts shared by tests.
package fixture

// Beatmap is a 4 key osu!mania chart. Notes are deliberately out of order.
const Beatmap = `osu file format v14

[General]
AudioFilename: audio.mp3
AudioLeadIn: 500
Mode: 3

[Metadata]
Title:Lanes
Artist:Nobody
Version:Normal

[Difficulty]
CircleSize:4

[HitObjects]
64,192,1000,1,0,0:0:0:0:
448,192,3000,1,0,0:0:0:0:
192,192,2000,128,0,2500:0:0:0:0:
320,192,1000,1,0,0:0:0:0:
64,192,1100,1,0,0:0:0:0:
`

// SingleTap has one tap in lane 0 at 1000ms
const SingleTap = `[HitObjects]
64,192,1000,1,0,0:0:0:0:
`

// SingleHold has one hold in lane 1 from 2000ms to 2500ms
const SingleHold = `[HitObjects]
192,192,2000,128,0,2500:0:0:0:0:
`

// SameColumn has two taps in lane 0, 100ms apart
const SameColumn = `[HitObjects]
64,192,1000,1,0,0:0:0:0:
64,192,1100,1,0,0:0:0:0:
`

// StepMania is a dance-single chart at 120 BPM, one beat is 500ms
const StepMania = `#TITLE:Lanes;
#ARTIST:Nobody;
#MUSIC:song.ogg;
#OFFSET:0.000;
#BPMS:0.000=120.000;
#NOTES:
     dance-single:
     :
     Easy:
     1:
     0,0,0,0,0:
1000
0100
0010
0001
,  // measure 2
2000
0000
3000
0000
;
`
