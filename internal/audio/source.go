package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Source is a readable handle over normalized audio. Implementations are
// safe for concurrent ReadRange calls.
type Source interface {
	// ID identifies the underlying audio for cache fingerprinting. Stable
	// across runs for the same content.
	ID() string
	// Duration returns the total length in seconds.
	Duration() float64
	// ReadRange returns the requested span encoded as a standalone WAV
	// buffer suitable for submission to a recognition provider.
	ReadRange(startSeconds, durationSeconds float64) ([]byte, error)
}

// FileSource reads a 16-bit PCM WAV file. Samples are decoded once at open
// time; ReadRange slices the decoded buffer and re-encodes the span.
type FileSource struct {
	path       string
	sampleRate int
	channels   int
	bitDepth   int
	samples    []int
	duration   float64
}

// OpenFile opens a WAV file as a Source.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", filepath.Base(path))
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, errors.New("decode audio: missing format information")
	}

	channels := buf.Format.NumChannels
	rate := buf.Format.SampleRate
	frames := len(buf.Data) / channels

	return &FileSource{
		path:       path,
		sampleRate: rate,
		channels:   channels,
		bitDepth:   int(decoder.BitDepth),
		samples:    buf.Data,
		duration:   float64(frames) / float64(rate),
	}, nil
}

func (s *FileSource) ID() string { return s.path }

func (s *FileSource) Duration() float64 { return s.duration }

// SampleRate returns the decoded sample rate in Hz.
func (s *FileSource) SampleRate() int { return s.sampleRate }

func (s *FileSource) ReadRange(startSeconds, durationSeconds float64) ([]byte, error) {
	if startSeconds < 0 || durationSeconds <= 0 {
		return nil, fmt.Errorf("invalid range: start=%.3f duration=%.3f", startSeconds, durationSeconds)
	}
	if startSeconds >= s.duration {
		return nil, fmt.Errorf("range start %.3fs beyond source end %.3fs", startSeconds, s.duration)
	}

	totalFrames := len(s.samples) / s.channels
	startFrame := int(startSeconds * float64(s.sampleRate))
	endFrame := startFrame + int(durationSeconds*float64(s.sampleRate))
	if endFrame > totalFrames {
		endFrame = totalFrames
	}
	if startFrame >= endFrame {
		return nil, fmt.Errorf("empty range at %.3fs", startSeconds)
	}

	span := s.samples[startFrame*s.channels : endFrame*s.channels]
	return encodeWAV(span, s.sampleRate, s.channels, s.bitDepth)
}

func encodeWAV(samples []int, sampleRate, channels, bitDepth int) ([]byte, error) {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	var out writeSeekBuffer
	encoder := wav.NewEncoder(&out, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("encode segment: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("finalize segment: %w", err)
	}
	return out.bytes, nil
}

// writeSeekBuffer satisfies io.WriteSeeker over an in-memory byte slice;
// the wav encoder seeks backwards to patch RIFF chunk sizes on Close.
type writeSeekBuffer struct {
	bytes []byte
	pos   int
}

func (b *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.bytes) {
		grown := make([]byte, need)
		copy(grown, b.bytes)
		b.bytes = grown
	}
	copy(b.bytes[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(b.pos) + offset
	case io.SeekEnd:
		next = int64(len(b.bytes)) + offset
	default:
		return 0, fmt.Errorf("unsupported whence %d", whence)
	}
	if next < 0 {
		return 0, errors.New("seek before start")
	}
	b.pos = int(next)
	return next, nil
}
