package modules

import (
	"strings"
	"testing"

	"github.com/varnis/lockdown/internal/profile"
)

func TestRenderJail(t *testing.T) {
	cfg := &profile.Fail2BanSection{MaxRetry: 5, BanTime: 7200}
	jail := renderJail(cfg, 4422)

	if !strings.HasPrefix(jail, "[sshd]\n") {
		t.Errorf("jail does not start with [sshd] section: %q", jail)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"enabled", "true"},
		{"port", "4422"},
		{"filter", "sshd"},
		{"maxretry", "5"},
		{"bantime", "7200"},
		{"backend", "systemd"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := extractJailValue(jail, tt.key); got != tt.want {
				t.Errorf("extractJailValue(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRenderJailPortTracksSSHPort(t *testing.T) {
	cfg := &profile.Fail2BanSection{MaxRetry: 3, BanTime: 3600}
	for _, port := range []int{1024, 2222, 65535} {
		jail := renderJail(cfg, port)
		got := extractJailValue(jail, "port")
		want := map[int]string{1024: "1024", 2222: "2222", 65535: "65535"}[port]
		if got != want {
			t.Errorf("port %d: jail port = %q, want %q", port, got, want)
		}
	}
}

func TestExtractJailValue(t *testing.T) {
	content := "[sshd]\nenabled = true\nport= 2222\n# maxretry = 9\nfindtime = 600\n"
	tests := []struct {
		key  string
		want string
	}{
		{"enabled", "true"},
		{"port", "2222"},
		{"findtime", "600"},
		{"bantime", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := extractJailValue(content, tt.key); got != tt.want {
				t.Errorf("extractJailValue(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
