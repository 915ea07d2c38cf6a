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
	"errors"
	"net/url"
)

const redacted = "redacted"

// RedactURL returns u with every query value replaced, so that tokens passed
// as query parameters do not end up in logs.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	if query := c.Query(); len(query) > 0 {
		for k := range query {
			query.Set(k, redacted)
		}
		c.RawQuery = query.Encode()
	}
	return c.Redacted()
}

// RedactError redacts the URL of a *url.Error found in err's chain.
func RedactError(err error) error {
	var urlErr *url.Error
	if err == nil || !errors.As(err, &urlErr) {
		return err
	}
	u, parseErr := url.Parse(urlErr.URL)
	if parseErr != nil {
		return err
	}
	return &url.Error{Op: urlErr.Op, URL: RedactURL(u), Err: urlErr.Err}
}
