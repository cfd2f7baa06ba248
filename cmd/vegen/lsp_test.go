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
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestRunLSPInitializeEchoesOptions(t *testing.T) {
	input := frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`) +
		frame(`{"jsonrpc":"2.0","method":"exit"}`)

	var out bytes.Buffer
	if err := runLSP(strings.NewReader(input), &out, map[string]any{"trace": "verbose"}); err != nil {
		t.Fatalf("runLSP: %v", err)
	}
	if !strings.Contains(out.String(), `"name":"vegen"`) {
		t.Fatalf("expected serverInfo.name in response, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), `"trace":"verbose"`) {
		t.Fatalf("expected echoed initializationOptions in response, got:\n%s", out.String())
	}
}

func TestRunLSPUnknownMethodReturnsError(t *testing.T) {
	input := frame(`{"jsonrpc":"2.0","id":2,"method":"textDocument/hover","params":{}}`) +
		frame(`{"jsonrpc":"2.0","method":"exit"}`)

	var out bytes.Buffer
	if err := runLSP(strings.NewReader(input), &out, nil); err != nil {
		t.Fatalf("runLSP: %v", err)
	}
	if !strings.Contains(out.String(), "method not found") {
		t.Fatalf("expected a method-not-found error, got:\n%s", out.String())
	}
}

func TestRunLSPStopsOnEOFWithoutExit(t *testing.T) {
	input := frame(`{"jsonrpc":"2.0","id":1,"method":"shutdown"}`)
	var out bytes.Buffer
	if err := runLSP(strings.NewReader(input), &out, nil); err != nil {
		t.Fatalf("runLSP: %v", err)
	}
}
