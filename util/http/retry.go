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

package http

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/containerd/log"
	rhttp "github.com/hashicorp/go-retryablehttp"
	"github.com/hoprnet/hoprd-config-generator/config"
	"github.com/sirupsen/logrus"
)

// NewRetryableClient creates a go http.Client which will automatically
// retry on non-fatal errors
func NewRetryableClient(cfg config.RetryableHTTPClientConfig) *http.Client {
	rhttpClient := rhttp.NewClient()
	// Don't log every request
	rhttpClient.Logger = nil

	rhttpClient.RetryMax = cfg.MaxRetries
	rhttpClient.RetryWaitMin = time.Duration(cfg.MinWaitMsec) * time.Millisecond
	rhttpClient.RetryWaitMax = time.Duration(cfg.MaxWaitMsec) * time.Millisecond
	rhttpClient.Backoff = BackoffStrategy
	rhttpClient.CheckRetry = RetryStrategy
	rhttpClient.ErrorHandler = HandleHTTPError
	rhttpClient.HTTPClient.Timeout = time.Duration(cfg.RequestTimeoutMsec) * time.Millisecond

	if t, ok := rhttpClient.HTTPClient.Transport.(*http.Transport); ok {
		t.DialContext = (&net.Dialer{
			Timeout: time.Duration(cfg.DialTimeoutMsec) * time.Millisecond,
		}).DialContext
		t.ResponseHeaderTimeout = time.Duration(cfg.ResponseHeaderTimeoutMsec) * time.Millisecond
	}

	return rhttpClient.StandardClient()
}

// Jitter returns a number in the range duration to duration+(duration/divisor)-1, inclusive
func Jitter(duration time.Duration, divisor int64) time.Duration {
	if int64(duration)/divisor <= 0 {
		return duration
	}
	return time.Duration(rand.Int63n(int64(duration)/divisor) + int64(duration))
}

// BackoffStrategy adds a random jitter to retryablehttp's DefaultBackoff,
// which honours a 'Retry-After' header or backs off exponentially up to max.
func BackoffStrategy(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	delayTime := rhttp.DefaultBackoff(min, max, attemptNum, resp)
	return Jitter(delayTime, 8)
}

// RetryStrategy is retryablehttp's DefaultRetryPolicy with a debug log for
// every retried request. Errors and URLs are logged with their query values
// redacted.
func RetryStrategy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	retry, err2 := rhttp.DefaultRetryPolicy(ctx, resp, err)
	if retry {
		fields := logrus.Fields{"error": RedactError(err)}
		if resp != nil {
			fields["status"] = resp.StatusCode
		}
		log.G(ctx).WithFields(fields).Debug("retrying request")
	}
	return retry, err2
}

// HandleHTTPError is called once retries are exhausted. It drains and closes
// the last response body and returns an error naming the request.
func HandleHTTPError(resp *http.Response, err error, attempts int) (*http.Response, error) {
	method, target := "unknown", "unknown"
	if resp != nil {
		if resp.Body != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if resp.Request != nil {
			method = resp.Request.Method
			target = RedactURL(resp.Request.URL)
		}
	}

	msg := fmt.Sprintf("%s %q: giving up request after %d attempt(s)", method, target, attempts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg, RedactError(err))
	}
	if resp != nil {
		return nil, fmt.Errorf("%s: unexpected status %s", msg, resp.Status)
	}
	return nil, fmt.Errorf("%s", msg)
}
