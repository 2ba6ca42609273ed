package canbus

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/canctl/internal/can"
)

func TestLoggedBusForwardsAndRecords(t *testing.T) {
	hub := NewLoopback()
	defer hub.Close()

	var out bytes.Buffer
	logged := NewLoggedBus(hub.Open(), zerolog.New(&out), LogAll)
	peer := hub.Open()

	f, err := can.NewFrame(0x321, 0, []byte{0xDE})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := logged.Send(ctx, f); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := peer.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !got.Equal(f) {
		t.Fatalf("frame mismatch through logged bus")
	}
	if !strings.Contains(out.String(), "bus send") {
		t.Fatalf("send not recorded: %s", out.String())
	}

	if err := peer.Send(ctx, f); err != nil {
		t.Fatalf("peer send: %v", err)
	}
	if _, err := logged.Receive(ctx); err != nil {
		t.Fatalf("logged receive: %v", err)
	}
	if !strings.Contains(out.String(), "bus receive") {
		t.Fatalf("receive not recorded: %s", out.String())
	}
}

func TestLoggedBusSelectsDirections(t *testing.T) {
	hub := NewLoopback()
	defer hub.Close()

	var out bytes.Buffer
	logged := NewLoggedBus(hub.Open(), zerolog.New(&out), LogReceive)
	hub.Open()

	f, err := can.NewFrame(0x9, 0, nil)
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := logged.Send(ctx, f); err != nil {
		t.Fatalf("send: %v", err)
	}
	if strings.Contains(out.String(), "bus send") {
		t.Fatalf("send recorded despite LogReceive only: %s", out.String())
	}
}
