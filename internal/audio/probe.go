// Package audio inspects uploaded audio attachments: it sniffs the content
// type and reads the duration of WAV and MP3 files.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/mrlokans/choirbook/internal/entities"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

const (
	MimeWAV = "audio/wav"
	MimeMP3 = "audio/mpeg"
)

// Probe describes the audio file at path. The returned URI is the path as
// given; callers decide where attachments live.
func Probe(path string) (*entities.AudioFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio file: %w", err)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect audio type: %w", err)
	}

	var duration time.Duration
	var mime string
	switch {
	case mtype.Is(MimeWAV):
		mime = MimeWAV
		duration, err = wavDuration(path)
	case mtype.Is(MimeMP3):
		mime = MimeMP3
		duration, err = mp3Duration(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}
	if err != nil {
		return nil, err
	}

	return &entities.AudioFile{
		URI:        path,
		Name:       filepath.Base(path),
		Size:       info.Size(),
		MimeType:   mime,
		DurationMs: duration.Milliseconds(),
	}, nil
}

func wavDuration(path string) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("failed to locate wav data chunk: %w", err)
	}
	// Duration() derives from the RIFF size, which counts header bytes too.
	bytesPerSec := int64(decoder.SampleRate) * int64(decoder.NumChans) * int64(decoder.BitDepth) / 8
	if bytesPerSec <= 0 {
		return 0, fmt.Errorf("invalid wav format: %d Hz, %d channels, %d bits",
			decoder.SampleRate, decoder.NumChans, decoder.BitDepth)
	}
	return time.Duration(decoder.PCMLen()) * time.Second / time.Duration(bytesPerSec), nil
}

// mp3 decodes to 16-bit stereo PCM, so each sample frame is four bytes.
const mp3BytesPerFrame = 4

func mp3Duration(path string) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open mp3 file: %w", err)
	}
	defer file.Close()

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return 0, fmt.Errorf("failed to decode mp3 file: %w", err)
	}
	rate := decoder.SampleRate()
	if rate <= 0 {
		return 0, fmt.Errorf("invalid mp3 sample rate %d", rate)
	}
	frames := decoder.Length() / mp3BytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(rate), nil
}
