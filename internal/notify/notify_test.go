package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeToaster struct {
	messages  []string
	durations []time.Duration
	err       error
}

func (f *fakeToaster) Toast(_ context.Context, message string, d time.Duration) error {
	f.messages = append(f.messages, message)
	f.durations = append(f.durations, d)
	return f.err
}

func TestFanoutDeliversInOrder(t *testing.T) {
	var got []string
	f := Fanout{
		Func(func(n Notice) { got = append(got, "a:"+n.Message) }),
		nil,
		Func(func(n Notice) { got = append(got, "b:"+n.Message) }),
	}
	f.Notify(Notice{Message: "hi"})
	if strings.Join(got, ",") != "a:hi,b:hi" {
		t.Fatalf("got %v", got)
	}
}

func TestGateDropsWhileDisabled(t *testing.T) {
	enabled := false
	count := 0
	g := Gate(Func(func(Notice) { count++ }), func() bool { return enabled })
	g.Notify(Notice{})
	enabled = true
	g.Notify(Notice{})
	if count != 1 {
		t.Fatalf("count: got %d want 1", count)
	}
}

func TestToastUsesDefaultDuration(t *testing.T) {
	ft := &fakeToaster{}
	n := Toast(context.Background(), ft, nil)
	n.Notify(Notice{Message: "gamepad connected!"})
	n.Notify(Notice{Message: "next executed", Duration: ShortDuration})
	if len(ft.durations) != 2 || ft.durations[0] != DefaultDuration || ft.durations[1] != ShortDuration {
		t.Fatalf("durations: got %v", ft.durations)
	}
}

func TestToastErrorIsAbsorbed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	n := Toast(context.Background(), &fakeToaster{err: errors.New("no page")}, logger)
	n.Notify(Notice{Message: "x"})
	if !strings.Contains(buf.String(), "toast failed") {
		t.Fatalf("expected debug log, got %q", buf.String())
	}
}

func TestLogNotifierLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	n := Log(logger)
	n.Notify(Notice{Kind: KindNotFound, Message: "next button not found", Origin: "native"})
	n.Notify(Notice{Kind: KindConnected, Message: "gamepad connected!", Label: "pad"})
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `message="next button not found"`) {
		t.Fatalf("unexpected log output: %q", out)
	}
	if !strings.Contains(out, "label=pad") {
		t.Fatalf("missing label: %q", out)
	}
}
