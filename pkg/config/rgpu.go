package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
)

// RgpuConfig is the top-level configuration for an rgpu-server or
// rgpu-daemon process, loaded from rgpu.toml: a single TOML file with
// server, client, and security sections.
type RgpuConfig struct {
	Server   RgpuServerConfig   `toml:"server"`
	Client   RgpuClientConfig   `toml:"client"`
	Security RgpuSecurityConfig `toml:"security"`
}

// RgpuServerConfig configures an rgpu-server process.
type RgpuServerConfig struct {
	ServerID    uint16   `toml:"server_id"`
	Port        uint16   `toml:"port"`
	Bind        string   `toml:"bind"`
	Transport   string   `toml:"transport"` // "tcp" or "quic"
	CertPath    string   `toml:"cert_path"`
	KeyPath     string   `toml:"key_path"`
	ExposeGpus  []uint32 `toml:"expose_gpus"`
	MaxClients  uint32   `toml:"max_clients"`
}

// RgpuClientConfig configures an rgpu-daemon process.
type RgpuClientConfig struct {
	Servers          []RgpuServerEndpoint `toml:"servers"`
	IncludeLocalGpus bool                 `toml:"include_local_gpus"`
	GpuOrdering      string               `toml:"gpu_ordering"` // "local_first", "remote_first", "by_capability"
}

// RgpuServerEndpoint is one remote server an rgpu-daemon dials on startup.
type RgpuServerEndpoint struct {
	Address   string `toml:"address"`
	Token     string `toml:"token"`
	CaCert    string `toml:"ca_cert"`
	Transport string `toml:"transport"`
}

// RgpuSecurityConfig lists the tokens an rgpu-server accepts.
type RgpuSecurityConfig struct {
	Tokens []RgpuTokenEntry `toml:"tokens"`
}

// RgpuTokenEntry grants one client a scoped set of GPU permissions.
type RgpuTokenEntry struct {
	Token        string   `toml:"token"`
	Name         string   `toml:"name"`
	AllowedGpus  []uint32 `toml:"allowed_gpus"`
	MaxMemory    uint64   `toml:"max_memory"`
}

// DefaultRgpuConfig returns the configuration a fresh install starts from.
func DefaultRgpuConfig() *RgpuConfig {
	return &RgpuConfig{
		Server: RgpuServerConfig{
			Port:       9876,
			Bind:       "0.0.0.0",
			Transport:  "tcp",
			MaxClients: 16,
		},
		Client: RgpuClientConfig{
			IncludeLocalGpus: true,
			GpuOrdering:      "local_first",
		},
	}
}

// LoadRgpuConfig reads and parses a TOML config file.
func LoadRgpuConfig(path string) (*RgpuConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := DefaultRgpuConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadRgpuConfigOrDefault loads path if it exists, falling back to
// DefaultRgpuConfig() otherwise, so a missing config file never fails
// startup.
func LoadRgpuConfigOrDefault(path string) *RgpuConfig {
	cfg, err := LoadRgpuConfig(path)
	if err != nil {
		return DefaultRgpuConfig()
	}
	return cfg
}

// DefaultIPCSocketPath returns the local socket path the client daemon
// listens on and the CUDA/Vulkan intercept libraries dial into: a Unix
// domain socket on POSIX systems, a named pipe path on Windows.
func DefaultIPCSocketPath() string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\rgpu-daemon`
	}
	return "/tmp/rgpu-daemon.sock"
}

// DefaultRgpuConfigPath returns the platform-conventional config path:
// a system-wide location if it exists, else ./rgpu.toml.
func DefaultRgpuConfigPath() string {
	var systemPath string
	if runtime.GOOS == "windows" {
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		systemPath = programData + `\RGPU\rgpu.toml`
	} else {
		systemPath = "/etc/rgpu/rgpu.toml"
	}
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return "rgpu.toml"
}

// Validate checks the configuration for invalid values before it's used
// to start a server or daemon.
func (c *RgpuConfig) Validate() error {
	if c.Server.Transport != "" && c.Server.Transport != "tcp" && c.Server.Transport != "quic" {
		return fmt.Errorf("config: invalid server transport %q", c.Server.Transport)
	}
	if c.Server.Transport == "quic" && (c.Server.CertPath == "" || c.Server.KeyPath == "") {
		return fmt.Errorf("config: quic transport requires cert_path and key_path")
	}
	switch c.Client.GpuOrdering {
	case "", "local_first", "remote_first", "by_capability":
	default:
		return fmt.Errorf("config: invalid gpu_ordering %q", c.Client.GpuOrdering)
	}
	for _, s := range c.Client.Servers {
		if s.Address == "" {
			return fmt.Errorf("config: client server entry missing address")
		}
	}
	return nil
}
