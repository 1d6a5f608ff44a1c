package autostart

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

// The unit runs the watch loop, which also serves the control API.
const unitTemplate = `[Unit]
Description=rtgrab watch-folder intake for rTorrent
After=network-online.target
Wants=network-online.target

[Service]
ExecStart={{.ExecPath}} watch
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

var unit = template.Must(template.New("unit").Parse(unitTemplate))

func writeUnit(w io.Writer, execPath string) error {
	return unit.Execute(w, map[string]string{"ExecPath": execPath})
}

type LinuxAutoStarter struct {
	// ConfigHome overrides $HOME/.config.
	ConfigHome string
	run        func(args ...string) ([]byte, error)
}

func (l *LinuxAutoStarter) unitPath() (string, error) {
	base := l.ConfigHome
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}

	dir := filepath.Join(base, "systemd", "user")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(dir, serviceName+".service"), nil
}

func (l *LinuxAutoStarter) systemctl(args ...string) ([]byte, error) {
	if l.run != nil {
		return l.run(args...)
	}
	return exec.Command("systemctl", append([]string{"--user"}, args...)...).CombinedOutput()
}

func (l *LinuxAutoStarter) Install(execPath string) error {
	path, err := l.unitPath()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create unit file: %w", err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err := writeUnit(f, execPath); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}

	steps := [][]string{
		{"daemon-reload"},
		{"enable", serviceName + ".service"},
		{"start", serviceName + ".service"},
	}

	for _, args := range steps {
		if out, err := l.systemctl(args...); err != nil {
			return fmt.Errorf("failed to run systemctl %v: %w\n%s", args, err, out)
		}
	}

	return nil
}

func (l *LinuxAutoStarter) Uninstall() error {
	_, _ = l.systemctl("stop", serviceName+".service")
	_, _ = l.systemctl("disable", serviceName+".service")

	path, err := l.unitPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func (l *LinuxAutoStarter) IsInstalled() (bool, error) {
	path, err := l.unitPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	return err == nil, nil
}
