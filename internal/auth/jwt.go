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
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tombee/arena-mcp/internal/config"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

// DefaultClockSkew is the leeway applied to exp and nbf claims.
const DefaultClockSkew = 30 * time.Second

// Claims represents the JWT claims accepted by the gate.
type Claims struct {
	jwt.RegisteredClaims

	// Email identifies the caller and is matched against the allowlist.
	Email string `json:"email,omitempty"`

	// EmailVerified rejects the token only when present and false.
	EmailVerified *bool `json:"email_verified,omitempty"`
}

type jwtVerifier struct {
	secret    []byte
	publicKey ed25519.PublicKey
	issuer    string
	audience  string
	domains   domainAllowlist
}

func newJWTVerifier(cfg config.JWTConfig, domains []string) (*jwtVerifier, error) {
	v := &jwtVerifier{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		domains:  newDomainAllowlist(domains),
	}

	if cfg.PublicKeyFile != "" {
		key, err := loadEdPublicKey(cfg.PublicKeyFile)
		if err != nil {
			return nil, &arenaerrors.ConfigError{
				Key:    "auth.jwt.public_key_file",
				Reason: "cannot load Ed25519 public key",
				Cause:  err,
			}
		}
		v.publicKey = key
	}

	return v, nil
}

func loadEdPublicKey(path string) (ed25519.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key, err := jwt.ParseEdPublicKeyFromPEM(data)
	if err != nil {
		return nil, err
	}

	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is %T, not Ed25519", key)
	}
	return pub, nil
}

func (v *jwtVerifier) verify(_ context.Context, token string) (*Identity, error) {
	if len(v.secret) == 0 && v.publicKey == nil {
		return nil, reject(ReasonNotConfigured, errors.New("no JWT verification key configured"))
	}
	if len(v.domains) == 0 {
		return nil, reject(ReasonNotConfigured, errNoAllowedDomains)
	}

	claims, err := v.parse(token)
	if err != nil {
		return nil, reject(ReasonInvalidToken, err)
	}

	if err := v.domains.checkEmail(claims.Email, claims.EmailVerified); err != nil {
		return nil, err
	}

	return &Identity{Subject: claims.Subject, Email: claims.Email}, nil
}

func (v *jwtVerifier) parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(DefaultClockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		switch t.Method.Alg() {
		case jwt.SigningMethodHS256.Alg():
			if len(v.secret) == 0 {
				return nil, errors.New("HS256 requires a secret")
			}
			return v.secret, nil
		case jwt.SigningMethodEdDSA.Alg():
			if v.publicKey == nil {
				return nil, errors.New("EdDSA requires a public key")
			}
			return v.publicKey, nil
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", t.Method.Alg())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token is invalid")
	}
	return claims, nil
}
