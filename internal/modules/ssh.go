package modules

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/varnis/lockdown/internal/profile"
	"github.com/varnis/lockdown/internal/system"
)

const (
	sshdConfigPath    = "/etc/ssh/sshd_config"
	rootAuthKeysPath  = "/root/.ssh/authorized_keys"
	rootSSHDirPath    = "/root/.ssh"
	permitRootSetting = "prohibit-password"
)

type SSHModule struct{}

func (m *SSHModule) Name() string        { return "SSH" }
func (m *SSHModule) Description() string { return "Custom port, key-only root login" }

func (m *SSHModule) Apply(cfg *profile.SSHSection) error {
	if cfg.AuthorizedKey != "" {
		if err := installRootKey(cfg.AuthorizedKey); err != nil {
			return err
		}
	}

	if _, err := system.BackupFile(sshdConfigPath); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	data, err := os.ReadFile(sshdConfigPath)
	if err != nil {
		return fmt.Errorf("cannot read sshd_config: %w", err)
	}

	content := string(data)
	content = setSSHDirective(content, "Port", strconv.Itoa(cfg.Port))
	content = setSSHDirective(content, "PermitRootLogin", permitRootSetting)
	content = setSSHDirective(content, "PasswordAuthentication", "no")
	content = setSSHDirective(content, "PubkeyAuthentication", "yes")

	if err := os.WriteFile(sshdConfigPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("cannot write sshd_config: %w", err)
	}

	// Ubuntu's unit is ssh.service, not sshd.
	return system.ServiceAction("ssh", "restart")
}

func (m *SSHModule) Plan(cfg *profile.SSHSection) []string {
	var cmds []string
	if cfg.AuthorizedKey != "" {
		cmds = append(cmds, "append public key to "+rootAuthKeysPath)
	}
	cmds = append(cmds,
		fmt.Sprintf("edit %s (Port=%d, PermitRootLogin=%s, PasswordAuthentication=no)",
			sshdConfigPath, cfg.Port, permitRootSetting),
		"systemctl restart ssh",
	)
	return cmds
}

func (m *SSHModule) Verify(cfg *profile.SSHSection) *VerifyResult {
	result := &VerifyResult{ModuleName: m.Name()}

	data, err := os.ReadFile(sshdConfigPath)
	if err != nil {
		result.Checks = append(result.Checks, Check{
			Name:   "config readable",
			Status: StatusFail,
			Actual: err.Error(),
		})
		return result
	}

	content := string(data)

	port, portCount := ActiveDirective(content, "Port")
	result.Checks = append(result.Checks, Check{
		Name:     "port",
		Status:   boolCheck(portCount == 1 && port == strconv.Itoa(cfg.Port)),
		Expected: strconv.Itoa(cfg.Port),
		Actual:   ternary(portCount == 1, port, fmt.Sprintf("%d Port lines", portCount)),
	})

	passAuth, _ := ActiveDirective(content, "PasswordAuthentication")
	result.Checks = append(result.Checks, Check{
		Name:     "password auth disabled",
		Status:   boolCheck(strings.EqualFold(passAuth, "no")),
		Expected: "no",
		Actual:   passAuth,
	})

	rootLogin, _ := ActiveDirective(content, "PermitRootLogin")
	result.Checks = append(result.Checks, Check{
		Name:     "root login key-only",
		Status:   boolCheck(strings.EqualFold(rootLogin, permitRootSetting) || strings.EqualFold(rootLogin, "without-password")),
		Expected: permitRootSetting,
		Actual:   rootLogin,
	})

	if cfg.AuthorizedKey != "" {
		keys, err := os.ReadFile(rootAuthKeysPath)
		hasKey := err == nil && strings.Contains(string(keys), strings.TrimSpace(cfg.AuthorizedKey))
		result.Checks = append(result.Checks, Check{
			Name:     "root authorized key installed",
			Status:   boolCheck(hasKey),
			Expected: "present",
			Actual:   ternary(hasKey, "present", "missing"),
		})
	}

	return result
}

// setSSHDirective rewrites content so that exactly one active "key value"
// line remains: the first matching line (active or commented out) is
// replaced in place and any further active occurrences are dropped. Stock
// Ubuntu configs ship "#Port 22" plus the occasional duplicate, so a plain
// substitution would leave two live Port lines behind.
func setSSHDirective(content, key, value string) string {
	activeRe := regexp.MustCompile(`^\s*` + key + `\s+\S`)
	anyRe := regexp.MustCompile(`^\s*#?\s*` + key + `\s+\S`)
	replacement := key + " " + value

	trailingNewline := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines)+1)

	replaced := false
	for _, line := range lines {
		switch {
		case !replaced && anyRe.MatchString(line):
			out = append(out, replacement)
			replaced = true
		case replaced && activeRe.MatchString(line):
			// drop duplicate active directive
		default:
			out = append(out, line)
		}
	}

	if !replaced {
		if len(out) > 0 && out[len(out)-1] == "" {
			out = out[:len(out)-1]
		}
		out = append(out, replacement, "")
		return strings.Join(out, "\n")
	}

	result := strings.Join(out, "\n")
	if trailingNewline && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}

// ActiveDirective returns the value of the first active occurrence of key
// in an sshd_config and how many active occurrences exist.
func ActiveDirective(content, key string) (string, int) {
	re := regexp.MustCompile(`(?m)^\s*` + key + `\s+(.+)$`)
	matches := re.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return "", 0
	}
	return strings.TrimSpace(matches[0][1]), len(matches)
}

func installRootKey(pubKey string) error {
	pubKey = strings.TrimSpace(pubKey)
	if !profile.LooksLikePublicKey(pubKey) {
		return fmt.Errorf("refusing to install something that does not look like a public key")
	}

	existing, _ := os.ReadFile(rootAuthKeysPath)
	if strings.Contains(string(existing), pubKey) {
		return nil
	}

	if err := os.MkdirAll(rootSSHDirPath, 0700); err != nil {
		return fmt.Errorf("cannot create %s: %w", rootSSHDirPath, err)
	}

	f, err := os.OpenFile(rootAuthKeysPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("cannot open authorized_keys: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n", pubKey); err != nil {
		return err
	}

	return nil
}
