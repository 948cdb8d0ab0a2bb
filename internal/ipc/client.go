package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tilewm/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Send issues a command with an optional payload.
func (c *Client) Send(cmd CommandType, payload interface{}) error {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return err
	}
	_, err = c.sendRequest(req)
	return err
}

// Stop asks the daemon to shut down. With ignoreRestore the daemon leaves
// hidden windows hidden.
func (c *Client) Stop(ignoreRestore bool) error {
	if ignoreRestore {
		return c.Send(CommandStopIgnoreRestore, nil)
	}
	return c.Send(CommandStop, nil)
}

// TogglePause pauses or resumes the daemon.
func (c *Client) TogglePause() error {
	return c.Send(CommandTogglePause, nil)
}

// ForceUpdate repaints every border.
func (c *Client) ForceUpdate() error {
	return c.Send(CommandForceUpdate, nil)
}

// State retrieves the daemon state.
func (c *Client) State() (*StateData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandState})
	if err != nil {
		return nil, err
	}

	var state StateData
	if err := json.Unmarshal(resp.Data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state data: %w", err)
	}
	return &state, nil
}

// SetBorders enables or disables borders.
func (c *Client) SetBorders(enabled bool) error {
	return c.Send(CommandBorder, EnabledPayload{Enabled: enabled})
}

// SetTransparency enables or disables transparency.
func (c *Client) SetTransparency(enabled bool) error {
	return c.Send(CommandTransparency, EnabledPayload{Enabled: enabled})
}

// SetTheme switches the border theme.
func (c *Client) SetTheme(flavour string, colours map[string]string) error {
	return c.Send(CommandTheme, ThemePayload{Flavour: flavour, Colours: colours})
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.State()
	return err
}
