// Copyright 2025 The OpenFIB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package agent contains the client for the forwarding agent's programming
// API. The agent exposes a JSON-over-HTTP interface:
//
//	POST /routes         install or overwrite a batch of routes
//	POST /routes/delete  remove a batch of prefixes
//	PUT  /routes         replace the entire table
//	GET  /routes         read the installed table
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"

	"github.com/openfib/fibsync/pkg/private/serrors"
	"github.com/openfib/fibsync/pkg/route"
)

// Client talks to the forwarding agent. It implements control.Agent.
type Client struct {
	// BaseURL is the agent endpoint, e.g. "http://127.0.0.1:8700".
	BaseURL string
	// HTTPClient is the underlying HTTP client. If nil, the default
	// client is used. Deadlines come from the per-call context.
	HTTPClient *http.Client
}

type routesBody struct {
	Routes []route.UnicastRoute `json:"routes"`
}

type prefixesBody struct {
	Prefixes []netip.Prefix `json:"prefixes"`
}

// AddOrUpdateRoutes installs or overwrites the given routes.
func (c *Client) AddOrUpdateRoutes(ctx context.Context,
	routes []route.UnicastRoute) error {

	return c.do(ctx, http.MethodPost, "/routes", routesBody{Routes: routes}, nil)
}

// DeleteRoutes removes the routes for the given prefixes.
func (c *Client) DeleteRoutes(ctx context.Context, prefixes []netip.Prefix) error {
	return c.do(ctx, http.MethodPost, "/routes/delete",
		prefixesBody{Prefixes: prefixes}, nil)
}

// SyncRoutes replaces the agent's entire table.
func (c *Client) SyncRoutes(ctx context.Context, routes []route.UnicastRoute) error {
	return c.do(ctx, http.MethodPut, "/routes", routesBody{Routes: routes}, nil)
}

// ListRoutes reads the agent's installed table.
func (c *Client) ListRoutes(ctx context.Context) ([]route.UnicastRoute, error) {
	var body routesBody
	if err := c.do(ctx, http.MethodGet, "/routes", nil, &body); err != nil {
		return nil, err
	}
	return body.Routes, nil
}

func (c *Client) do(ctx context.Context, method, path string,
	request, response any) error {

	var body io.Reader
	if request != nil {
		raw, err := json.Marshal(request)
		if err != nil {
			return serrors.Wrap("encoding request", err, "path", path)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return serrors.Wrap("creating request", err, "path", path)
	}
	if request != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return serrors.Wrap("calling agent", err, "method", method, "path", path)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return serrors.New("agent returned error",
			"method", method, "path", path,
			"status", resp.StatusCode, "body", string(bytes.TrimSpace(raw)))
	}
	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return serrors.Wrap("decoding response", err, "path", path)
		}
	}
	return nil
}

func (c *Client) String() string {
	return fmt.Sprintf("agent(%s)", c.BaseURL)
}
