package daemon

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client dials the daemon's Unix socket for a single request/response
// round trip, matching the server's one-request-per-connection contract.
type Client struct {
	SocketPath string
	Timeout    time.Duration
}

// Call sends method/params and decodes the reply.
func (c *Client) Call(method string, params any) (Response, error) {
	conn, err := net.DialTimeout("unix", c.SocketPath, c.timeout())
	if err != nil {
		return Response{}, fmt.Errorf("daemon: connect: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout()))

	if err := json.NewEncoder(conn).Encode(Request{Method: method, Params: params}); err != nil {
		return Response{}, fmt.Errorf("daemon: send: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("daemon: receive: %w", err)
	}
	return resp, nil
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 5 * time.Second
	}
	return c.Timeout
}

// Ping returns nil if the daemon answered "pong".
func (c *Client) Ping() error {
	resp, err := c.Call(MethodPing, nil)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("daemon: ping: %s", resp.Error)
	}
	return nil
}

// Query runs a query and returns the results as raw JSON for the
// caller to decode.
func (c *Client) Query(q string) (json.RawMessage, error) {
	resp, err := c.Call(MethodQuery, QueryParams{Query: q})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("daemon: query: %s", resp.Error)
	}
	return json.Marshal(resp.Result)
}
