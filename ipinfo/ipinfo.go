/*
   Copyright The hoprd-config-generator Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package ipinfo looks up the public address of the host.
package ipinfo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"

	"github.com/containerd/log"
	httputil "github.com/hoprnet/hoprd-config-generator/util/http"
)

// maxBodySize bounds the response read from the lookup endpoint.
const maxBodySize = 256

// Lookup asks endpoint for the caller's address. The endpoint must answer a
// GET request with the address as plain text.
func Lookup(ctx context.Context, client *http.Client, endpoint string) (netip.Addr, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return netip.Addr{}, err
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return netip.Addr{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return netip.Addr{}, err
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(string(body)))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid address in response: %w", err)
	}
	return addr, nil
}

// Detect returns the public address of the host, or fallback when the lookup
// fails. Failures are logged and never returned.
func Detect(ctx context.Context, client *http.Client, endpoint, fallback string) string {
	addr, err := Lookup(ctx, client, endpoint)
	if err != nil {
		log.G(ctx).WithError(httputil.RedactError(err)).WithField("fallback", fallback).
			Warn("could not retrieve public address")
		return fallback
	}
	log.G(ctx).WithField("address", addr.String()).Info("retrieved public address")
	return addr.String()
}
