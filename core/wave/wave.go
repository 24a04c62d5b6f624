// Package wave probes wav files for the audio parameters the Partitur header
// needs, so sample rate, channel count and bit depth can come from the
// recording itself instead of flags.
package wave

import (
	"fmt"
	"os"

	"github.com/gopxl/beep/wav"

	"github.com/lingtools/mausalign/core/errors"
)

// Info is the audio metadata of one wav file.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int

	// Duration is the length of the recording in seconds.
	Duration float64
}

// Probe reads the wav header of the file.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, errors.NewIO("open", path, err)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return Info{}, errors.NewIO("decode wav", path, err)
	}
	defer streamer.Close()

	info := Info{
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		BitDepth:   format.Precision * 8,
	}
	if format.SampleRate > 0 {
		info.Duration = float64(streamer.Len()) / float64(format.SampleRate)
	}
	if info.SampleRate <= 0 || info.Channels <= 0 {
		return Info{}, errors.NewIO("decode wav", path,
			fmt.Errorf("implausible format %d Hz, %d channels", info.SampleRate, info.Channels))
	}
	return info, nil
}
