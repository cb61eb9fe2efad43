package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"evalgo.org/dockboard/internal/hosts"
)

// sshTunnel forwards engine API connections to the remote engine socket
// over one shared ssh connection. The connection is opened on first use
// and reopened when it drops.
type sshTunnel struct {
	ep     hosts.Endpoint
	opts   SSHOptions
	logger *slog.Logger

	mu     sync.Mutex
	client *ssh.Client
	closed bool
}

func newSSHTunnel(ep hosts.Endpoint, opts SSHOptions, logger *slog.Logger) *sshTunnel {
	return &sshTunnel{ep: ep, opts: opts, logger: logger}
}

// DialContext satisfies the Docker client's dialer hook. network and addr
// are ignored; every connection goes to the remote socket.
func (t *sshTunnel) DialContext(ctx context.Context, _, _ string) (net.Conn, error) {
	cli, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := cli.Dial("unix", t.ep.SocketPath)
	if err == nil {
		return conn, nil
	}

	// the shared connection may have dropped; reconnect once
	t.reset(cli)
	cli, rerr := t.connect(ctx)
	if rerr != nil {
		return nil, rerr
	}
	conn, err = cli.Dial("unix", t.ep.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("ssh: failed to reach %s on %s: %w", t.ep.SocketPath, t.ep.Hostname, err)
	}
	return conn, nil
}

func (t *sshTunnel) connect(ctx context.Context) (*ssh.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, errors.New("ssh: tunnel closed")
	}
	if t.client != nil {
		return t.client, nil
	}

	settings := resolveSSH(t.ep, t.opts)
	cfg, release, err := clientConfig(settings, t.opts)
	if err != nil {
		return nil, err
	}
	defer release()

	address := net.JoinHostPort(settings.hostname, settings.port)
	dialer := &net.Dialer{Timeout: t.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("ssh: can't reach %s: %w", address, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh: handshake with %s failed: %w", address, err)
	}

	t.client = ssh.NewClient(sshConn, chans, reqs)
	t.logger.Debug("Opened ssh tunnel", "address", address, "user", settings.user, "socket", t.ep.SocketPath)
	return t.client, nil
}

func (t *sshTunnel) reset(stale *ssh.Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == stale && t.client != nil {
		_ = t.client.Close()
		t.client = nil
	}
}

// Close shuts the shared connection down. Later dials fail.
func (t *sshTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

type sshSettings struct {
	hostname     string
	port         string
	user         string
	identityFile string
}

// resolveSSH merges the endpoint with ~/.ssh/config. Values in the URI win.
func resolveSSH(ep hosts.Endpoint, opts SSHOptions) sshSettings {
	s := sshSettings{
		hostname: ep.Hostname,
		port:     ep.Port,
		user:     ep.User,
	}

	configPath := opts.ConfigFile
	if configPath == "" {
		configPath = filepath.Join(homeDir(), ".ssh", "config")
	}
	if f, err := os.Open(configPath); err == nil {
		cfg, derr := ssh_config.Decode(f)
		_ = f.Close()
		if derr == nil {
			alias := ep.Hostname
			if v, _ := cfg.Get(alias, "HostName"); v != "" {
				s.hostname = v
			}
			if v, _ := cfg.Get(alias, "Port"); v != "" && s.port == "" {
				s.port = v
			}
			if v, _ := cfg.Get(alias, "User"); v != "" && s.user == "" {
				s.user = v
			}
			if v, _ := cfg.Get(alias, "IdentityFile"); v != "" {
				s.identityFile = expandHome(v)
			}
		}
	}

	if s.port == "" {
		s.port = "22"
	}
	if s.user == "" {
		s.user = currentUser()
	}
	return s
}

// clientConfig builds the handshake config. The caller runs release once
// the handshake is done; on error the agent connection is already closed.
func clientConfig(s sshSettings, opts SSHOptions) (cfg *ssh.ClientConfig, release func(), err error) {
	release = func() {}
	var auth []ssh.AuthMethod
	if a, conn := agentAuth(); a != nil {
		auth = append(auth, a)
		release = func() { _ = conn.Close() }
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	tried := map[string]bool{}
	keyFiles := []string{opts.IdentityFile, s.identityFile,
		filepath.Join(homeDir(), ".ssh", "id_ed25519"),
		filepath.Join(homeDir(), ".ssh", "id_rsa"),
		filepath.Join(homeDir(), ".ssh", "id_ecdsa"),
	}
	for _, path := range keyFiles {
		if path == "" || tried[path] {
			continue
		}
		tried[path] = true
		if signer, err := loadSigner(path); err == nil {
			auth = append(auth, ssh.PublicKeys(signer))
		}
	}
	if len(auth) == 0 {
		return nil, nil, errors.New("ssh: no usable keys, load one with ssh-add or set an identity file")
	}

	var hostKey ssh.HostKeyCallback
	if opts.InsecureIgnoreHostKey {
		hostKey = ssh.InsecureIgnoreHostKey() //nolint:gosec // explicitly configured
	} else {
		knownHosts := opts.KnownHostsFile
		if knownHosts == "" {
			knownHosts = filepath.Join(homeDir(), ".ssh", "known_hosts")
		}
		cb, kerr := knownhosts.New(knownHosts)
		if kerr != nil {
			return nil, nil, fmt.Errorf("ssh: failed to load known_hosts: %w", kerr)
		}
		hostKey = cb
	}

	return &ssh.ClientConfig{
		User:            s.user,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         opts.DialTimeout,
	}, release, nil
}

// agentAuth dials SSH_AUTH_SOCK and returns agent-backed auth when the
// agent holds keys. The agent is dialled on every call so a restarted
// agent is picked up. The returned closer must be called once the
// handshake is done.
func agentAuth() (ssh.AuthMethod, io.Closer) {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, nil
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, nil
	}
	client := agent.NewClient(conn)
	if signers, err := client.Signers(); err != nil || len(signers) == 0 {
		_ = conn.Close()
		return nil, nil
	}
	return ssh.PublicKeysCallback(client.Signers), conn
}

func loadSigner(path string) (ssh.Signer, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(key)
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return os.Getenv("HOME")
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return path
}
