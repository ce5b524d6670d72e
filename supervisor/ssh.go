package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultSSHPort is used when SSHConfig.Port is zero.
const DefaultSSHPort = 22

// SSHConfig configures an SSHRunner.
type SSHConfig struct {
	Host string
	Port int
	User string

	// Password authenticates with a password. Used when KeyFile is empty
	// or in addition to it.
	Password string

	// KeyFile is a PEM private key. Passphrase decrypts it when set.
	KeyFile    string
	Passphrase string

	// KnownHostsFile verifies the host key. Defaults to ~/.ssh/known_hosts.
	// Unknown hosts are rejected; the file is never written.
	KnownHostsFile string

	// Command is the argv prefix run remotely. Defaults to DefaultCommand.
	Command []string
}

// SSHRunner runs the status command on a remote host.
type SSHRunner struct {
	config SSHConfig
}

// NewSSHRunner creates a runner for the given host.
func NewSSHRunner(config SSHConfig) *SSHRunner {
	if config.Port == 0 {
		config.Port = DefaultSSHPort
	}
	if len(config.Command) == 0 {
		config.Command = DefaultCommand
	}
	return &SSHRunner{config: config}
}

func (r *SSHRunner) addr() string {
	return net.JoinHostPort(r.config.Host, strconv.Itoa(r.config.Port))
}

func (r *SSHRunner) knownHostsFile() string {
	if r.config.KnownHostsFile != "" {
		return r.config.KnownHostsFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ssh", "known_hosts")
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

func (r *SSHRunner) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if r.config.KeyFile != "" {
		pem, err := os.ReadFile(r.config.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		var signer ssh.Signer
		if r.config.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(r.config.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(pem)
		}
		if err != nil {
			return nil, fmt.Errorf("parse key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if r.config.Password != "" {
		methods = append(methods, ssh.Password(r.config.Password))
	}

	if len(methods) == 0 {
		return nil, ErrNoAuthMethod
	}
	return methods, nil
}

func (r *SSHRunner) clientConfig() (*ssh.ClientConfig, error) {
	auth, err := r.authMethods()
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := knownhosts.New(r.knownHostsFile())
	if err != nil {
		return nil, fmt.Errorf("known_hosts: %w", err)
	}

	return &ssh.ClientConfig{
		User:            r.config.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
	}, nil
}

func (r *SSHRunner) dial(ctx context.Context, config *ssh.ClientConfig) (*ssh.Client, error) {
	addr := r.addr()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}

// Status dials the host, runs the status command and returns its output.
// Dial, handshake and authentication failures wrap ErrUnavailable.
func (r *SSHRunner) Status(ctx context.Context, service string) (string, error) {
	config, err := r.clientConfig()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	client, err := r.dial(ctx, config)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %s: %w", ErrUnavailable, r.addr(), err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: failed to create session: %w", ErrUnavailable, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	command := shellJoin(append(append([]string{}, r.config.Command...), service))

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		client.Close()
		return "", ctx.Err()
	}

	return statusText(stdout.String(), stderr.String(), err, r.addr()+": "+command)
}
