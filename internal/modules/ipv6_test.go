package modules

import (
	"strings"
	"testing"
)

func TestAppendIPv6Settings(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantAdded     int
		wantSuffix    string
		wantUnchanged bool
	}{
		{
			name:       "empty file gets all three",
			content:    "",
			wantAdded:  3,
			wantSuffix: "net.ipv6.conf.lo.disable_ipv6 = 1\n",
		},
		{
			name: "already fully set is untouched",
			content: "net.ipv6.conf.all.disable_ipv6 = 1\n" +
				"net.ipv6.conf.default.disable_ipv6 = 1\n" +
				"net.ipv6.conf.lo.disable_ipv6 = 1\n",
			wantAdded:     0,
			wantUnchanged: true,
		},
		{
			name:      "partially set gets the rest",
			content:   "net.ipv6.conf.all.disable_ipv6 = 1\n",
			wantAdded: 2,
		},
		{
			name:      "commented lines do not count as set",
			content:   "#net.ipv6.conf.all.disable_ipv6 = 1\n",
			wantAdded: 3,
		},
		{
			name:      "enabled knob is forced back to 1",
			content:   "net.ipv6.conf.all.disable_ipv6 = 0\n",
			wantAdded: 3,
		},
		{
			name: "all knobs at 0 are rewritten",
			content: "net.ipv6.conf.all.disable_ipv6 = 0\n" +
				"net.ipv6.conf.default.disable_ipv6 = 0\n" +
				"net.ipv6.conf.lo.disable_ipv6 = 0\n",
			wantAdded: 3,
		},
		{
			name:       "missing trailing newline is repaired",
			content:    "vm.swappiness=10",
			wantAdded:  3,
			wantSuffix: "net.ipv6.conf.lo.disable_ipv6 = 1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendIPv6Settings(tt.content)

			if tt.wantUnchanged && got != tt.content {
				t.Fatalf("content changed: %q -> %q", tt.content, got)
			}

			added := strings.Count(got, "disable_ipv6 = 1") - strings.Count(tt.content, "disable_ipv6 = 1")
			if added != tt.wantAdded {
				t.Errorf("added %d disable lines, want %d (content %q)", added, tt.wantAdded, got)
			}

			for _, key := range ipv6Keys {
				val, ok := activeSysctlSetting(got, key)
				if !ok || val != "1" {
					t.Errorf("key %s = %q after append, want 1", key, val)
				}
			}
		})
	}
}

func TestAppendIPv6SettingsNeverLeavesZero(t *testing.T) {
	// A knob set to 0 must not survive: sysctl applies the file top to
	// bottom and the last value wins.
	got := appendIPv6Settings("net.ipv6.conf.all.disable_ipv6 = 0\n")
	if strings.Contains(got, "= 0") {
		t.Errorf("a zero setting survived: %q", got)
	}
	if val, _ := activeSysctlSetting(got, "net.ipv6.conf.all.disable_ipv6"); val != "1" {
		t.Errorf("all knob = %q, want 1", val)
	}
}

func TestActiveSysctlSetting(t *testing.T) {
	content := "net.ipv6.conf.all.disable_ipv6 = 1\n# net.ipv6.conf.lo.disable_ipv6 = 1\nnet.ipv4.ip_forward=0\n"
	tests := []struct {
		key      string
		wantVal  string
		wantBool bool
	}{
		{"net.ipv6.conf.all.disable_ipv6", "1", true},
		{"net.ipv6.conf.lo.disable_ipv6", "", false},
		{"net.ipv4.ip_forward", "0", true},
		{"net.ipv6.conf.default.disable_ipv6", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			val, ok := activeSysctlSetting(content, tt.key)
			if val != tt.wantVal || ok != tt.wantBool {
				t.Errorf("activeSysctlSetting(%q) = (%q, %v), want (%q, %v)", tt.key, val, ok, tt.wantVal, tt.wantBool)
			}
		})
	}
}

func TestRewriteSysctlSetting(t *testing.T) {
	content := "net.ipv6.conf.all.disable_ipv6 = 0\n#net.ipv6.conf.all.disable_ipv6 = 0\nvm.swappiness=10\n"
	got := rewriteSysctlSetting(content, "net.ipv6.conf.all.disable_ipv6")

	if !strings.Contains(got, "net.ipv6.conf.all.disable_ipv6 = 1\n") {
		t.Errorf("active line not rewritten: %q", got)
	}
	if !strings.Contains(got, "#net.ipv6.conf.all.disable_ipv6 = 0") {
		t.Errorf("commented line should stay untouched: %q", got)
	}
	if !strings.Contains(got, "vm.swappiness=10") {
		t.Errorf("unrelated line lost: %q", got)
	}
}
