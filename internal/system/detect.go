package system

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"
)

type OSInfo struct {
	ID         string
	VersionID  string
	PrettyName string
}

// Supported reports whether this host is the Ubuntu release the tool
// targets. Other Ubuntu releases run with a warning, everything else aborts.
func (i *OSInfo) Supported() bool {
	return i.ID == "ubuntu" && strings.HasPrefix(i.VersionID, "24.04")
}

func DetectOS() (*OSInfo, error) {
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("lockdown only supports Linux, detected %s", runtime.GOOS)
	}

	f, err := os.Open("/etc/os-release")
	if err != nil {
		return nil, fmt.Errorf("cannot read /etc/os-release: %w", err)
	}
	defer f.Close()

	info := &OSInfo{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, val, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		val = strings.Trim(val, "\"")
		switch key {
		case "ID":
			info.ID = val
		case "VERSION_ID":
			info.VersionID = val
		case "PRETTY_NAME":
			info.PrettyName = val
		}
	}

	if info.ID != "ubuntu" {
		return info, fmt.Errorf("lockdown currently supports Ubuntu only, detected %s", info.PrettyName)
	}

	return info, nil
}

func RequireRoot() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("lockdown must be run as root — try: sudo lockdown")
	}
	return nil
}
