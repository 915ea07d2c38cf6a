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

// Config (root) defaults
const (
	defaultFolder = "./.hoprd-nodes"

	// defaultMaxConcurrency is the maximum number of node configs rendered at once.
	defaultMaxConcurrency = 8

	// Node n listens on base + n, so the first node gets 3001 and 9091.
	defaultBaseAPIPort     = 3000
	defaultBaseNetworkPort = 9090
)

// ComposeConfig defaults
const (
	DefaultImage         = "europe-west3-docker.pkg.dev/hoprassociation/docker-images/hoprd:stable"
	defaultRestartPolicy = "unless-stopped"
)

// IPDetectionConfig defaults
const (
	DefaultIPEndpoint      = "https://ipinfo.io/ip"
	DefaultFallbackAddress = "0.0.0.0"

	// defaultDialTimeoutMsec is the default number of milliseconds before timeout while connecting to a remote endpoint. See `TimeoutConfig.DialTimeoutMsec`.
	defaultDialTimeoutMsec = 3_000
	// defaultResponseHeaderTimeoutMsec is the default number of milliseconds before timeout while waiting for response header from a remote endpoint. See `TimeoutConfig.ResponseHeaderTimeoutMsec`.
	defaultResponseHeaderTimeoutMsec = 3_000
	// defaultRequestTimeoutMsec is the default number of milliseconds that the entire request can take before timeout. See `TimeoutConfig.RequestTimeoutMsec`.
	defaultRequestTimeoutMsec = 10_000

	// The lookup is a convenience with a fallback, so retries are kept short.

	// defaultMaxRetries is the default number of retries that a retryable request will make. See `RetryConfig.MaxRetries`.
	defaultMaxRetries = 3
	// defaultMinWaitMsec is the default minimum number of milliseconds between attempts. See `RetryConfig.MinWaitMsec`.
	defaultMinWaitMsec = 100
	// defaultMaxWaitMsec is the default maximum number of milliseconds between attempts. See `RetryConfig.MaxWaitMsec`.
	defaultMaxWaitMsec = 2_000
)
