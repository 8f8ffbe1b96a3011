package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithRoomAddsField(t *testing.T) {
	capture := &logCapture{}
	log := WithRoom(newCaptureLogger(capture), "lobby@conference.localhost")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["room"] != "lobby@conference.localhost" {
		t.Fatalf("expected room field, got %+v", entry)
	}
}

func TestWithRoomSkipsEmpty(t *testing.T) {
	capture := &logCapture{}
	WithRoom(newCaptureLogger(capture), "").Info("hello")

	entry := capture.firstEntry(t)
	if _, ok := entry["room"]; ok {
		t.Fatalf("did not expect room field, got %+v", entry)
	}
}

func TestWithUserWinAddsFields(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	log := WithUserWin(ctx, "alice", "bob@localhost")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["user"] != "alice" {
		t.Fatalf("expected user field, got %+v", entry)
	}
	if entry["win"] != "bob@localhost" {
		t.Fatalf("expected win field, got %+v", entry)
	}
}

func TestCopyContextFields(t *testing.T) {
	src := ContextWithWin(ContextWithUser(context.Background(), "alice"), "console")
	dst := CopyContextFields(context.Background(), src)
	if dst.Value(userKey) != src.Value(userKey) || dst.Value(winKey) != "console" {
		t.Fatalf("expected markers copied")
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
