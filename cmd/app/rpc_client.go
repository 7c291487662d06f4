package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// socketTransport speaks JSON-RPC 2.0 to the server's unix socket, one
// request per connection.
type socketTransport struct {
	path  string
	token string
}

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  map[string]any  `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *callError      `json:"error,omitempty"`
	ID      any             `json:"id"`
}

func newSocketTransport(path, token string) socketTransport {
	return socketTransport{path: path, token: token}
}

func (t socketTransport) do(ctx context.Context, call gameCall, out any) error {
	if call.method == "" {
		return errNotOnSocket
	}
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", t.path)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.path, err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// the token travels inside params
	params := make(map[string]any, len(call.params)+1)
	for k, v := range call.params {
		params[k] = v
	}
	if t.token != "" {
		params["token"] = t.token
	}
	if err := json.NewEncoder(conn).Encode(rpcEnvelope{JSONRPC: "2.0", Method: call.method, Params: params, ID: 1}); err != nil {
		return err
	}

	var resp rpcEnvelope
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}
