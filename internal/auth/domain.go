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
	"errors"
	"strings"
)

var errNoAllowedDomains = errors.New("no allowed domains configured")

// domainAllowlist matches email addresses by exact domain.
type domainAllowlist map[string]struct{}

func newDomainAllowlist(domains []string) domainAllowlist {
	allow := make(domainAllowlist, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" {
			allow[d] = struct{}{}
		}
	}
	return allow
}

// allows reports whether email belongs to an allowed domain. Subdomains
// are not implied.
func (a domainAllowlist) allows(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	_, ok := a[strings.ToLower(email[at+1:])]
	return ok
}

// checkEmail applies the checks shared by the delegated identity modes.
func (a domainAllowlist) checkEmail(email string, verified *bool) error {
	if email == "" {
		return reject(ReasonMissingEmail, nil)
	}
	if verified != nil && !*verified {
		return reject(ReasonEmailUnverified, nil)
	}
	if !a.allows(email) {
		return reject(ReasonDomainNotAllowed, nil)
	}
	return nil
}
