// Package profile holds the answer set a hardening run operates from:
// either collected by the interactive wizard or loaded from a JSON/YAML
// file for non-interactive runs. The last applied profile is persisted so
// verify can re-check the host against it later.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const Dir = "/etc/lockdown"

var Path = "/etc/lockdown/profile.json"

type Profile struct {
	Updates  *UpdatesSection  `json:"updates,omitempty" yaml:"updates,omitempty"`
	SSH      *SSHSection      `json:"ssh,omitempty" yaml:"ssh,omitempty"`
	Firewall *FirewallSection `json:"firewall,omitempty" yaml:"firewall,omitempty"`
	Fail2Ban *Fail2BanSection `json:"fail2ban,omitempty" yaml:"fail2ban,omitempty"`
	IPv6     *IPv6Section     `json:"ipv6,omitempty" yaml:"ipv6,omitempty"`
}

type UpdatesSection struct{}

type SSHSection struct {
	// Port must stay out of the privileged range so sshd can rebind
	// without colliding with system services.
	Port          int    `json:"port" yaml:"port" validate:"min=1024,max=65535"`
	AuthorizedKey string `json:"authorized_key,omitempty" yaml:"authorized_key,omitempty" validate:"omitempty,pubkey"`
}

type FirewallSection struct {
	RateLimitSSH bool `json:"rate_limit_ssh" yaml:"rate_limit_ssh"`
}

type Fail2BanSection struct {
	MaxRetry int `json:"max_retry" yaml:"max_retry" validate:"min=1"`
	BanTime  int `json:"ban_time" yaml:"ban_time" validate:"min=60"`
}

type IPv6Section struct{}

// Default returns the wizard's pre-selected answers: all five areas on,
// SSH moved to 2222, three strikes and a one-hour ban.
func Default() *Profile {
	return &Profile{
		Updates:  &UpdatesSection{},
		SSH:      &SSHSection{Port: 2222},
		Firewall: &FirewallSection{RateLimitSSH: true},
		Fail2Ban: &Fail2BanSection{MaxRetry: 3, BanTime: 3600},
		IPv6:     &IPv6Section{},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pubkey", func(fl validator.FieldLevel) bool {
		return LooksLikePublicKey(fl.Field().String())
	})
	return v
}

// LooksLikePublicKey is a shallow sniff of OpenSSH public key material.
// It guards against pasting a private key or garbage, nothing more.
func LooksLikePublicKey(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return strings.HasPrefix(s, "ssh-") || strings.HasPrefix(s, "ecdsa-") || strings.HasPrefix(s, "sk-")
}

func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid profile: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

// LoadFile reads a profile from a JSON or YAML file, picking the decoder
// by extension the same way the apply command's --config flag documents.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read profile: %w", err)
	}

	var p Profile
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid profile %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid profile %s: %w", path, err)
		}
	}

	return &p, nil
}

// Load reads the last saved profile. A missing file returns (nil, nil).
func Load() (*Profile, error) {
	data, err := os.ReadFile(Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

func Save(p *Profile) error {
	if err := os.MkdirAll(filepath.Dir(Path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(Path, data, 0600)
}
