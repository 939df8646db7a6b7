package modules

import (
	"strings"
	"testing"

	"github.com/varnis/lockdown/internal/profile"
)

func TestFirewallCommands(t *testing.T) {
	m := &FirewallModule{}

	t.Run("allow rule by default", func(t *testing.T) {
		cmds := m.commands(&profile.FirewallSection{}, 2222)
		joined := strings.Join(cmds, "\n")
		if !strings.Contains(joined, "ufw allow 2222/tcp") {
			t.Errorf("missing allow rule: %v", cmds)
		}
		if strings.Contains(joined, "ufw limit") {
			t.Errorf("unexpected limit rule: %v", cmds)
		}
	})

	t.Run("limit replaces allow when rate limiting", func(t *testing.T) {
		cmds := m.commands(&profile.FirewallSection{RateLimitSSH: true}, 2222)
		joined := strings.Join(cmds, "\n")
		if !strings.Contains(joined, "ufw limit 2222/tcp") {
			t.Errorf("missing limit rule: %v", cmds)
		}
		if strings.Contains(joined, "ufw allow 2222/tcp") {
			t.Errorf("allow rule should not coexist with limit: %v", cmds)
		}
	})

	t.Run("always one rule for the ssh port", func(t *testing.T) {
		for _, rateLimit := range []bool{false, true} {
			cmds := m.commands(&profile.FirewallSection{RateLimitSSH: rateLimit}, 4422)
			count := 0
			for _, c := range cmds {
				if strings.Contains(c, "4422/tcp") {
					count++
				}
			}
			if count != 1 {
				t.Errorf("rate_limit=%v: %d rules for ssh port, want 1: %v", rateLimit, count, cmds)
			}
		}
	})

	t.Run("deny incoming defaults come first", func(t *testing.T) {
		cmds := m.commands(&profile.FirewallSection{}, 2222)
		if cmds[0] != "ufw default deny incoming" || cmds[1] != "ufw default allow outgoing" {
			t.Errorf("unexpected default ordering: %v", cmds)
		}
		if cmds[len(cmds)-1] != "ufw --force enable" {
			t.Errorf("enable must come last: %v", cmds)
		}
	})
}

func TestCountPortRules(t *testing.T) {
	status := `Status: active

To                         Action      From
--                         ------      ----
2222/tcp                   LIMIT       Anywhere
80/tcp                     ALLOW       Anywhere
2222/tcp (v6)              LIMIT       Anywhere (v6)
80/tcp (v6)                ALLOW       Anywhere (v6)
`
	tests := []struct {
		port int
		want int
	}{
		{2222, 1},
		{80, 1},
		{443, 0},
	}
	for _, tt := range tests {
		if got := countPortRules(status, tt.port); got != tt.want {
			t.Errorf("countPortRules(%d) = %d, want %d", tt.port, got, tt.want)
		}
	}
}

func TestCountPortRulesDetectsDuplicates(t *testing.T) {
	status := "Status: active\n2222/tcp ALLOW Anywhere\n2222/tcp LIMIT Anywhere\n"
	if got := countPortRules(status, 2222); got != 2 {
		t.Errorf("countPortRules() = %d, want 2", got)
	}
}
