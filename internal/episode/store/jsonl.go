package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/amalg/bomberarena/internal/episode"
)

// Record kinds in a JSONL outcome file.
const (
	KindRun     = "run"
	KindEpisode = "episode"
)

// Line is one line of a JSONL outcome file. Exactly one of Run and Episode is
// set, matching Kind.
type Line struct {
	Kind    string           `json:"kind"`
	Run     *episode.RunInfo `json:"run,omitempty"`
	Episode *episode.Outcome `json:"episode,omitempty"`
}

// JSONL appends outcomes as zstd-compressed JSON lines. Each run adds its own
// zstd frame, so files from several runs can be appended to one another.
type JSONL struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// OpenJSONL opens path for appending, creating parent directories as needed.
func OpenJSONL(path string) (*JSONL, error) {
	if path == "" {
		return nil, fmt.Errorf("empty jsonl path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &JSONL{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Begin writes the run header line.
func (j *JSONL) Begin(info episode.RunInfo) error {
	return j.write(Line{Kind: KindRun, Run: &info})
}

// Record writes one outcome line.
func (j *JSONL) Record(o episode.Outcome) error {
	return j.write(Line{Kind: KindEpisode, Episode: &o})
}

func (j *JSONL) write(l Line) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return ErrClosed
	}
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

// Close flushes buffered lines and ends the zstd frame.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return nil
	}
	err1 := j.w.Flush()
	err2 := j.enc.Close()
	err3 := j.f.Close()
	j.w, j.enc, j.f = nil, nil, nil
	switch {
	case err1 != nil:
		return err1
	case err2 != nil:
		return err2
	}
	return err3
}

// ReadJSONL decodes every line of a file written by JSONL.
func ReadJSONL(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return decodeLines(dec)
}

func decodeLines(r io.Reader) ([]Line, error) {
	var lines []Line
	d := json.NewDecoder(r)
	for {
		var l Line
		err := d.Decode(&l)
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, l)
	}
}
