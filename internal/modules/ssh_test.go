package modules

import (
	"strings"
	"testing"

	"github.com/varnis/lockdown/internal/profile"
)

func TestSetSSHDirective(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
		value   string
		want    string
	}{
		{
			name:    "replace existing",
			content: "Port 22\n",
			key:     "Port",
			value:   "2222",
			want:    "Port 2222\n",
		},
		{
			name:    "replace commented",
			content: "#Port 22\n",
			key:     "Port",
			value:   "2222",
			want:    "Port 2222\n",
		},
		{
			name:    "replace commented with space",
			content: "# Port 22\n",
			key:     "Port",
			value:   "2222",
			want:    "Port 2222\n",
		},
		{
			name:    "collapse duplicate active lines",
			content: "Port 22\nPort 2200\n",
			key:     "Port",
			value:   "2222",
			want:    "Port 2222\n",
		},
		{
			name:    "commented first then active duplicate",
			content: "#Port 22\nSomething else\nPort 2200\n",
			key:     "Port",
			value:   "2222",
			want:    "Port 2222\nSomething else\n",
		},
		{
			name:    "add when missing",
			content: "Port 22\n",
			key:     "X11Forwarding",
			value:   "no",
			want:    "Port 22\nX11Forwarding no\n",
		},
		{
			name:    "does not touch unrelated keys",
			content: "PermitRootLogin yes\nPermitTunnel no\n",
			key:     "PermitRootLogin",
			value:   "prohibit-password",
			want:    "PermitRootLogin prohibit-password\nPermitTunnel no\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := setSSHDirective(tt.content, tt.key, tt.value)
			if got != tt.want {
				t.Errorf("setSSHDirective() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetSSHDirectiveLeavesOneActivePortLine(t *testing.T) {
	// A messy stock config: commented default plus two live duplicates.
	content := "# This is the sshd server configuration\n#Port 22\nPort 22\nPort 2200\nPasswordAuthentication yes\n"
	got := setSSHDirective(content, "Port", "4422")

	val, count := ActiveDirective(got, "Port")
	if count != 1 {
		t.Fatalf("active Port lines = %d, want 1 (content %q)", count, got)
	}
	if val != "4422" {
		t.Errorf("Port = %q, want %q", val, "4422")
	}
}

func TestActiveDirective(t *testing.T) {
	content := "Port 2222\n#Port 22\nPasswordAuthentication no\nAllowUsers deploy ubuntu\n"
	tests := []struct {
		key       string
		want      string
		wantCount int
	}{
		{"Port", "2222", 1},
		{"PasswordAuthentication", "no", 1},
		{"AllowUsers", "deploy ubuntu", 1},
		{"MissingOption", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, count := ActiveDirective(content, tt.key)
			if got != tt.want || count != tt.wantCount {
				t.Errorf("ActiveDirective(%q) = (%q, %d), want (%q, %d)", tt.key, got, count, tt.want, tt.wantCount)
			}
		})
	}
}

func TestActiveDirectiveCountsDuplicates(t *testing.T) {
	content := "Port 22\nPort 2200\n"
	_, count := ActiveDirective(content, "Port")
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestSSHPlanMentionsPortAndRestart(t *testing.T) {
	m := &SSHModule{}
	cmds := m.Plan(&profile.SSHSection{Port: 4422, AuthorizedKey: "ssh-ed25519 AAAA test@host"})
	joined := strings.Join(cmds, "\n")
	if !strings.Contains(joined, "Port=4422") {
		t.Errorf("plan missing port: %v", cmds)
	}
	if !strings.Contains(joined, "systemctl restart ssh") {
		t.Errorf("plan missing restart: %v", cmds)
	}
	if !strings.Contains(joined, "authorized_keys") {
		t.Errorf("plan missing key install: %v", cmds)
	}
}
