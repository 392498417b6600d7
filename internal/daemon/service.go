package daemon

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"text/template"

	"github.com/adrg/xdg"
)

// Service names.
const (
	LaunchdLabel = "com.timeblock.daemon"
	SystemdUnit  = "timeblock.service"
)

// ServiceManager installs the daemon as a per-user system service.
type ServiceManager struct {
	executablePath string
	paths          Paths
	goos           string
	run            func(name string, args ...string) ([]byte, error)
}

// NewServiceManager creates a service manager for the current executable.
func NewServiceManager(p Paths) (*ServiceManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	return &ServiceManager{
		executablePath: execPath,
		paths:          p,
		goos:           runtime.GOOS,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}, nil
}

// serviceData fills the unit templates.
type serviceData struct {
	ExecutablePath string
	LogPath        string
	HomeDirectory  string
	ConfigHome     string
	DataHome       string
	StateHome      string
}

func (m *ServiceManager) data() serviceData {
	return serviceData{
		ExecutablePath: m.executablePath,
		LogPath:        m.paths.LogFile(),
		HomeDirectory:  os.Getenv("HOME"),
		ConfigHome:     xdg.ConfigHome,
		DataHome:       xdg.DataHome,
		StateHome:      xdg.StateHome,
	}
}

// Path returns where the service definition is written.
func (m *ServiceManager) Path() (string, error) {
	switch m.goos {
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", LaunchdLabel+".plist"), nil
	case "linux":
		return filepath.Join(xdg.ConfigHome, "systemd", "user", SystemdUnit), nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", m.goos)
	}
}

// Render returns the service definition for the current OS.
func (m *ServiceManager) Render() ([]byte, error) {
	switch m.goos {
	case "darwin":
		return render(launchdPlist, m.data())
	case "linux":
		return render(systemdUnit, m.data())
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", m.goos)
	}
}

func render(text string, data serviceData) ([]byte, error) {
	tmpl, err := template.New("service").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render service: %w", err)
	}
	return buf.Bytes(), nil
}

// Install writes the service definition and starts it.
func (m *ServiceManager) Install() error {
	path, err := m.Path()
	if err != nil {
		return err
	}
	content, err := m.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create service directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.paths.LogFile()), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	if m.goos == "darwin" {
		if out, err := m.run("launchctl", "load", path); err != nil {
			return fmt.Errorf("failed to load service: %w: %s", err, out)
		}
		return nil
	}

	for _, args := range [][]string{
		{"--user", "daemon-reload"},
		{"--user", "enable", SystemdUnit},
		{"--user", "start", SystemdUnit},
	} {
		if out, err := m.run("systemctl", args...); err != nil {
			return fmt.Errorf("failed to run systemctl %s: %w: %s", args[1], err, out)
		}
	}
	return nil
}

// Uninstall stops the service and removes its definition.
func (m *ServiceManager) Uninstall() error {
	path, err := m.Path()
	if err != nil {
		return err
	}

	if m.goos == "darwin" {
		m.run("launchctl", "unload", path)
	} else {
		m.run("systemctl", "--user", "stop", SystemdUnit)
		m.run("systemctl", "--user", "disable", SystemdUnit)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove service file: %w", err)
	}
	if m.goos == "linux" {
		m.run("systemctl", "--user", "daemon-reload")
	}
	return nil
}

// IsInstalled checks if the service definition exists.
func (m *ServiceManager) IsInstalled() bool {
	path, err := m.Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

const launchdPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.timeblock.daemon</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>daemon</string>
        <string>start</string>
        <string>--foreground</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
</dict>
</plist>
`

const systemdUnit = `[Unit]
Description=Timeblock reminder daemon
After=network.target

[Service]
Type=simple
ExecStart={{.ExecutablePath}} daemon start --foreground
Restart=on-failure
RestartSec=5
StandardOutput=append:{{.LogPath}}
StandardError=append:{{.LogPath}}
Environment="HOME={{.HomeDirectory}}"
Environment="XDG_CONFIG_HOME={{.ConfigHome}}"
Environment="XDG_DATA_HOME={{.DataHome}}"
Environment="XDG_STATE_HOME={{.StateHome}}"

[Install]
WantedBy=default.target
`
