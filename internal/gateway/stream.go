package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"guildwatch/pkg/logx"
)

// StreamFeed reads jsonl-encoded frames from a reader, one frame per
// line. It is used for replaying captured gateway traffic and in tests;
// a live platform connection implements Feed directly.
type StreamFeed struct {
	r   io.Reader
	log logx.Logger
}

func NewStreamFeed(r io.Reader, log logx.Logger) *StreamFeed {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &StreamFeed{r: r, log: log}
}

func (f *StreamFeed) Run(ctx context.Context, out chan<- Frame) error {
	sc := bufio.NewScanner(f.r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var fr Frame
		if err := json.Unmarshal(line, &fr); err != nil {
			f.log.Warn("skipping malformed frame", logx.Err(err))
			continue
		}
		select {
		case out <- fr:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return sc.Err()
}

// FileFeed replays frames from a jsonl file.
type FileFeed struct {
	path string
	log  logx.Logger
}

func NewFileFeed(path string, log logx.Logger) *FileFeed {
	return &FileFeed{path: path, log: log}
}

func (f *FileFeed) Run(ctx context.Context, out chan<- Frame) error {
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer file.Close()
	return NewStreamFeed(file, f.log).Run(ctx, out)
}

// LogSender logs outbound messages instead of delivering them. It
// stands in for the platform send primitive in replay and dry-run
// setups.
type LogSender struct {
	log logx.Logger
}

func NewLogSender(log logx.Logger) *LogSender {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) SendMessage(ctx context.Context, channelID string, text string) error {
	_ = ctx
	s.log.Info("send (dry-run)", logx.String("channel_id", channelID), logx.String("text", text))
	return nil
}
