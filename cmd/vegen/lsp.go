// Copyright 2026 The VeGen Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// rpcMessage is the subset of the JSON-RPC 2.0 envelope vegen lsp needs to
// read a request and write back a response; it does not implement
// notifications other than "exit".
type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newLSPCmd(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Hidden: true,
		Use:    "lsp",
		Short:  "run a minimal language server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.Command)
			if err != nil {
				return err
			}
			return runLSP(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.LSP.InitializationOptions)
		},
	}
	return cmd
}

// runLSP serves a single stdio JSON-RPC connection until the client sends
// "exit" or the input stream closes. It understands only "initialize" (to
// echo back initializationOptions as serverInfo.data, so a client can
// confirm what --config handed the server) and "shutdown"/"exit"; any other
// method gets a method-not-found error response, matching an editor client's
// expectations for an LSP handshake without needing the full protocol.
func runLSP(r io.Reader, w io.Writer, initOptions map[string]any) error {
	reader := bufio.NewReader(r)
	for {
		msg, err := readMessage(reader)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if msg.Method == "exit" {
			return nil
		}
		if len(msg.ID) == 0 {
			// A notification other than "exit"; nothing to reply to.
			continue
		}
		resp := handleRequest(msg, initOptions)
		if err := writeMessage(w, resp); err != nil {
			return err
		}
	}
}

func handleRequest(msg rpcMessage, initOptions map[string]any) rpcResponse {
	switch msg.Method {
	case "initialize":
		return rpcResponse{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Result: map[string]any{
				"capabilities": map[string]any{},
				"serverInfo": map[string]any{
					"name": "vegen",
					"data": initOptions,
				},
			},
		}
	case "shutdown":
		return rpcResponse{JSONRPC: "2.0", ID: msg.ID, Result: nil}
	default:
		return rpcResponse{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error:   &rpcError{Code: -32601, Message: fmt.Sprintf("method not found: %s", msg.Method)},
		}
	}
}

// readMessage reads one Content-Length-framed JSON-RPC message, the framing
// every LSP transport (stdio included) uses.
func readMessage(r *bufio.Reader) (rpcMessage, error) {
	var length int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return rpcMessage{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return rpcMessage{}, fmt.Errorf("invalid Content-Length header %q: %w", value, err)
			}
			length = n
		}
	}
	if length == 0 {
		return rpcMessage{}, fmt.Errorf("missing Content-Length header")
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return rpcMessage{}, err
	}
	var msg rpcMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return rpcMessage{}, err
	}
	return msg, nil
}

func writeMessage(w io.Writer, resp rpcResponse) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
