package internal

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alpindale/tinyscripts/internal/gpu/base"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHHost is one concrete Host block of ~/.ssh/config.
type SSHHost struct {
	Name         string
	Hostname     string
	User         string
	Port         string
	IdentityFile string
}

// SSHClient runs probe commands on a remote machine.
type SSHClient struct {
	client *ssh.Client
	host   SSHHost
}

var ErrHostNotFound = errors.New("host not found in ssh config")

func ParseSSHConfig(configPath string) ([]SSHHost, error) {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(home, ".ssh", "config")
	}
	return parseSSHConfigFile(configPath, make(map[string]bool))
}

// FindHost picks a Host block by its alias. An alias missing from the config
// is still usable as a plain hostname.
func FindHost(hosts []SSHHost, name string) (SSHHost, error) {
	for _, h := range hosts {
		if h.Name == name {
			return h, nil
		}
	}
	return SSHHost{Name: name, Hostname: name, Port: "22"}, fmt.Errorf("%w: %s", ErrHostNotFound, name)
}

func parseSSHConfigFile(configPath string, visited map[string]bool) ([]SSHHost, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	if visited[absPath] {
		return nil, nil
	}
	visited[absPath] = true

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var hosts []SSHHost
	var current *SSHHost
	flush := func() {
		// wildcard blocks are defaults, not hosts
		if current != nil && !strings.ContainsAny(current.Name, "*?") {
			hosts = append(hosts, *current)
		}
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.ToLower(fields[0])
		value := strings.Join(fields[1:], " ")

		switch {
		case key == "include":
			pattern := expandPath(value)
			if pattern != "" && !filepath.IsAbs(pattern) {
				pattern = filepath.Join(filepath.Dir(configPath), pattern)
			}
			matches, err := filepath.Glob(pattern)
			if err != nil {
				continue
			}
			for _, match := range matches {
				included, err := parseSSHConfigFile(match, visited)
				if err != nil {
					continue
				}
				hosts = append(hosts, included...)
			}
		case key == "host":
			flush()
			current = &SSHHost{Name: value, Port: "22"}
		case current != nil:
			switch key {
			case "hostname":
				current.Hostname = value
			case "user":
				current.User = value
			case "port":
				current.Port = value
			case "identityfile":
				current.IdentityFile = expandPath(value)
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return hosts, nil
}

// expandPath resolves ~/ and relative paths against the user's home and
// refuses anything that climbs out of it.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if strings.Contains(path, "..") {
		return ""
	}
	path = filepath.Clean(path)

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch {
	case strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`):
		return filepath.Join(home, path[2:])
	case filepath.IsAbs(path):
		return path
	default:
		return filepath.Join(home, ".ssh", path)
	}
}

func hostKeyCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to get user home directory: %w", err)
	}
	knownHostsPath := filepath.Join(home, ".ssh", "known_hosts")

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load known_hosts: %w", err)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) {
			if len(keyErr.Want) > 0 {
				return fmt.Errorf("host key verification failed: host key has changed for %s", hostname)
			}
			return fmt.Errorf("host key verification failed: %s is not in %s, run 'ssh %s' first", hostname, knownHostsPath, hostname)
		}
		return err
	}, nil
}

func authMethods(identityFile string) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if identityFile != "" {
		if m, err := publicKeyAuth(identityFile); err == nil {
			methods = append(methods, m)
		}
	}

	if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" && filepath.IsAbs(socket) {
		if conn, err := net.Dial("unix", socket); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
			keyPath := filepath.Join(home, ".ssh", name)
			if keyPath == identityFile {
				continue
			}
			if m, err := publicKeyAuth(keyPath); err == nil {
				methods = append(methods, m)
			}
		}
	}
	return methods
}

func publicKeyAuth(keyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	// encrypted keys fail here and are left to the agent
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

func NewSSHClient(host SSHHost, timeout time.Duration) (*SSHClient, error) {
	if host.Hostname == "" {
		host.Hostname = host.Name
	}
	if host.User == "" {
		host.User = os.Getenv("USER")
	}
	if host.Port == "" {
		host.Port = "22"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	auth := authMethods(host.IdentityFile)
	if len(auth) == 0 {
		return nil, fmt.Errorf("no authentication methods available")
	}

	callback, err := hostKeyCallback()
	if err != nil {
		return nil, fmt.Errorf("failed to setup host key verification: %w", err)
	}

	addr := net.JoinHostPort(host.Hostname, host.Port)
	client, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            host.User,
		Auth:            auth,
		HostKeyCallback: callback,
		Timeout:         timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &SSHClient{client: client, host: host}, nil
}

// only the probe commands may run remotely
func isAllowedCommand(cmd string) bool {
	allowedPrefixes := []string{
		"nvidia-smi ",
		"amd-smi ",
		"rocm-smi ",
		"uname ",
	}

	cmd = strings.TrimSpace(cmd)
	if cmd == "ver" {
		return true
	}
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(cmd, prefix) {
			return true
		}
	}
	return false
}

// ExecuteCommand returns the remote stdout.
func (c *SSHClient) ExecuteCommand(cmd string) (string, error) {
	if !isAllowedCommand(cmd) {
		return "", fmt.Errorf("command not in allowed list: %s", cmd)
	}

	session, err := c.client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	output, err := session.Output(cmd)
	return string(output), err
}

func (c *SSHClient) RunCmd() base.RunCmdFunc {
	return c.ExecuteCommand
}

func (c *SSHClient) Host() SSHHost {
	return c.host
}

func (c *SSHClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
