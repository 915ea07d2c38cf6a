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

package config

import "fmt"

// RetryConfig represents the settings for retries in a retryable http client.
type RetryConfig struct {
	// MaxRetries is the maximum number of retries before giving up on a retryable request.
	// This does not include the initial request so the total number of attempts will be MaxRetries + 1.
	MaxRetries int `toml:"max_retries"`
	// MinWaitMsec is the minimum wait time between attempts. The actual wait time is governed by the BackoffStrategy,
	// but the wait time will never be shorter than this duration.
	MinWaitMsec int64 `toml:"min_wait_msec"`
	// MaxWaitMsec is the maximum wait time between attempts. The actual wait time is governed by the BackoffStrategy,
	// but the wait time will never be longer than this duration.
	MaxWaitMsec int64 `toml:"max_wait_msec"`
}

// TimeoutConfig represents the settings for timeout at various points in a request lifecycle in a retryable http client.
type TimeoutConfig struct {
	// DialTimeoutMsec is the maximum duration that connection can take before a request attempt is timed out.
	DialTimeoutMsec int64 `toml:"dial_timeout_msec"`
	// ResponseHeaderTimeoutMsec is the maximum duration waiting for response headers before a request attempt is timed out.
	ResponseHeaderTimeoutMsec int64 `toml:"response_header_timeout_msec"`
	// RequestTimeoutMsec is the maximum duration before the entire request attempt is timed out.
	RequestTimeoutMsec int64 `toml:"request_timeout_msec"`
}

// RetryableHTTPClientConfig is the complete config for a retryable http client
type RetryableHTTPClientConfig struct {
	TimeoutConfig
	RetryConfig
}

func parseRetryableHTTPClientConfig(cfg *RetryableHTTPClientConfig) error {
	if cfg.DialTimeoutMsec == 0 {
		cfg.DialTimeoutMsec = defaultDialTimeoutMsec
	}
	if cfg.ResponseHeaderTimeoutMsec == 0 {
		cfg.ResponseHeaderTimeoutMsec = defaultResponseHeaderTimeoutMsec
	}
	if cfg.RequestTimeoutMsec == 0 {
		cfg.RequestTimeoutMsec = defaultRequestTimeoutMsec
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MinWaitMsec == 0 {
		cfg.MinWaitMsec = defaultMinWaitMsec
	}
	if cfg.MaxWaitMsec == 0 {
		cfg.MaxWaitMsec = defaultMaxWaitMsec
	}
	if cfg.MinWaitMsec > cfg.MaxWaitMsec {
		return fmt.Errorf("retry min wait %dms exceeds max wait %dms", cfg.MinWaitMsec, cfg.MaxWaitMsec)
	}
	return nil
}
