// Copyright 2025 Tom Barlow
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

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tombee/arena-mcp/internal/config"
	"github.com/tombee/arena-mcp/pkg/httpclient"
	"golang.org/x/oauth2"
)

// DefaultGoogleUserInfoURL is Google's OpenID Connect userinfo endpoint.
const DefaultGoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

const defaultGoogleTimeout = 10 * time.Second

// googleUserInfo is the subset of the userinfo response the gate reads.
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
}

// googleVerifier accepts Google OAuth access tokens by asking Google who
// they belong to.
type googleVerifier struct {
	userInfoURL string
	timeout     time.Duration
	base        *http.Client
	domains     domainAllowlist
}

func newGoogleVerifier(cfg config.GoogleConfig, domains []string, base *http.Client, logger *slog.Logger) (*googleVerifier, error) {
	v := &googleVerifier{
		userInfoURL: cfg.UserInfoURL,
		timeout:     cfg.Timeout,
		base:        base,
		domains:     newDomainAllowlist(domains),
	}
	if v.userInfoURL == "" {
		v.userInfoURL = DefaultGoogleUserInfoURL
	}
	if v.timeout <= 0 {
		v.timeout = defaultGoogleTimeout
	}

	if v.base == nil {
		httpCfg := httpclient.DefaultConfig()
		httpCfg.Timeout = v.timeout
		httpCfg.Logger = logger
		client, err := httpclient.New(httpCfg)
		if err != nil {
			return nil, fmt.Errorf("creating identity provider client: %w", err)
		}
		v.base = client
	}

	return v, nil
}

func (v *googleVerifier) verify(ctx context.Context, token string) (*Identity, error) {
	if len(v.domains) == 0 {
		return nil, reject(ReasonNotConfigured, errNoAllowedDomains)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return nil, reject(ReasonProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, reject(ReasonProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, reject(ReasonInvalidToken, fmt.Errorf("userinfo returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, reject(ReasonProviderUnavailable, fmt.Errorf("userinfo returned %d", resp.StatusCode))
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, reject(ReasonProviderUnavailable, fmt.Errorf("decoding userinfo: %w", err))
	}

	// Google always reports verification; treat a missing flag as unverified.
	verified := info.EmailVerified != nil && *info.EmailVerified
	if err := v.domains.checkEmail(info.Email, &verified); err != nil {
		return nil, err
	}

	return &Identity{Subject: info.Sub, Email: info.Email}, nil
}
