package ipc

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	accept  bool
	answer  bool
	handled []*Request
}

func (f *fakeSubmitter) SubmitCommand(req *Request, reply chan<- *Response) bool {
	if !f.accept {
		return false
	}
	f.mu.Lock()
	f.handled = append(f.handled, req)
	f.mu.Unlock()
	if !f.answer {
		return true
	}
	switch req.Command {
	case CommandState:
		resp, _ := NewOKResponse(StateData{Borders: 3, Implementation: "overlay"})
		reply <- resp
	case CommandBorder:
		var p EnabledPayload
		if err := req.DecodePayload(&p); err != nil {
			reply <- NewErrorResponse(err.Error())
			return true
		}
		reply <- nil
	default:
		reply <- NewErrorResponse("unknown command: " + string(req.Command))
	}
	return true
}

func startServer(t *testing.T, sub Submitter, timeout time.Duration) *Client {
	t.Helper()
	dir, err := os.MkdirTemp("", "tilewm-ipc")
	if err != nil {
		t.Fatalf("MkdirTemp() error: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "s.sock")
	srv := NewServerAt(path, sub, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(srv.Stop)
	return NewClientAt(path)
}

func TestClientServer_State(t *testing.T) {
	client := startServer(t, &fakeSubmitter{accept: true, answer: true}, time.Second)

	state, err := client.State()
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	if state.Borders != 3 || state.Implementation != "overlay" {
		t.Fatalf("State() = %+v, want 3 overlay borders", state)
	}
}

func TestClientServer_NilReplyIsOK(t *testing.T) {
	sub := &fakeSubmitter{accept: true, answer: true}
	client := startServer(t, sub, time.Second)

	if err := client.SetBorders(false); err != nil {
		t.Fatalf("SetBorders() error: %v", err)
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.handled) != 1 || string(sub.handled[0].Payload) != `{"enabled":false}` {
		t.Fatalf("handled = %+v", sub.handled)
	}
}

func TestClientServer_ErrorResponse(t *testing.T) {
	client := startServer(t, &fakeSubmitter{accept: true, answer: true}, time.Second)

	err := client.TogglePause()
	if err == nil || !strings.Contains(err.Error(), "unknown command: TOGGLE_PAUSE") {
		t.Fatalf("TogglePause() error = %v, want daemon error", err)
	}
}

func TestClientServer_Busy(t *testing.T) {
	tests := []struct {
		name string
		sub  *fakeSubmitter
	}{
		{"dropped", &fakeSubmitter{}},
		{"timeout", &fakeSubmitter{accept: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := startServer(t, tt.sub, 20*time.Millisecond)
			err := client.ForceUpdate()
			if err == nil || !strings.Contains(err.Error(), ErrBusy.Error()) {
				t.Fatalf("ForceUpdate() error = %v, want %v", err, ErrBusy)
			}
		})
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{`{"command":"STATE"}`, false},
		{`{"command":"BORDER_WIDTH","payload":{"value":4}}`, false},
		{`{}`, true},
		{`not json`, true},
	}
	for _, tt := range tests {
		_, err := ParseRequest([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRequest(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestDecodePayload(t *testing.T) {
	req, err := NewRequest(CommandBorderColour, BorderColourPayload{Kind: "stack", Colour: "#00a542"})
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	var p BorderColourPayload
	if err := req.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload() error: %v", err)
	}
	if p.Kind != "stack" || p.Colour != "#00a542" {
		t.Fatalf("DecodePayload() = %+v", p)
	}

	empty := &Request{Command: CommandFocusMonitor}
	if err := empty.DecodePayload(&IntPayload{}); err == nil {
		t.Fatal("DecodePayload() on empty payload returned nil error")
	}
}

func TestAllowedWhilePaused(t *testing.T) {
	tests := []struct {
		cmd  CommandType
		want bool
	}{
		{CommandTogglePause, true},
		{CommandState, true},
		{CommandStop, true},
		{CommandStopIgnoreRestore, true},
		{CommandForceUpdate, false},
		{CommandBorder, false},
	}
	for _, tt := range tests {
		if got := tt.cmd.AllowedWhilePaused(); got != tt.want {
			t.Fatalf("%s.AllowedWhilePaused() = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}
