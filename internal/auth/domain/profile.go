package domain

import "encoding/json"

// ExternalProfile is the untrusted user document fetched from a remote
// identity provider. Known fields are typed; anything the provider sends
// beyond them lands in Extra so nothing is silently dropped.
type ExternalProfile struct {
	ID            string   `json:"sub"`
	Email         string   `json:"email"`
	Name          string   `json:"name,omitempty"`
	GivenName     string   `json:"given_name,omitempty"`
	FamilyName    string   `json:"family_name,omitempty"`
	Picture       string   `json:"picture,omitempty"`
	EmailVerified bool     `json:"email_verified,omitempty"`
	Groups        []string `json:"groups,omitempty"`
	Roles         []string `json:"roles,omitempty"`

	// Extra holds provider-specific claims we don't model.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownProfileFields = map[string]struct{}{
	"sub": {}, "email": {}, "name": {}, "given_name": {}, "family_name": {},
	"picture": {}, "email_verified": {}, "groups": {}, "roles": {},
}

// UnmarshalJSON decodes the typed fields and captures unknown claims.
func (p *ExternalProfile) UnmarshalJSON(data []byte) error {
	type plain ExternalProfile
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range knownProfileFields {
		delete(raw, k)
	}

	*p = ExternalProfile(known)
	if len(raw) > 0 {
		p.Extra = raw
	}
	return nil
}

// DisplayName picks the best available name for a freshly provisioned user.
func (p ExternalProfile) DisplayName() (first, last string) {
	if p.GivenName != "" || p.FamilyName != "" {
		return p.GivenName, p.FamilyName
	}
	if p.Name != "" {
		return p.Name, ""
	}
	return "", ""
}
