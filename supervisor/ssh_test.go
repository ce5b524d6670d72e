package supervisor

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/jonwraymond/smokecheck/health"
)

// fakeSSHServer accepts password "pw" for user "smoke" and answers every
// exec request with reply, exiting with status.
type fakeSSHServer struct {
	addr     string
	hostKey  ssh.PublicKey
	mu       sync.Mutex
	commands []string
}

func startFakeSSHServer(t *testing.T, reply string, status uint32) *fakeSSHServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host signer: %v", err)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "smoke" && string(pass) == "pw" {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	srv := &fakeSSHServer{addr: ln.Addr().String(), hostKey: signer.PublicKey()}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.serve(conn, config, reply, status)
		}
	}()

	return srv
}

func (s *fakeSSHServer) serve(conn net.Conn, config *ssh.ServerConfig, reply string, status uint32) {
	defer conn.Close()

	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go func() {
			defer ch.Close()
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				_ = ssh.Unmarshal(req.Payload, &payload)
				s.mu.Lock()
				s.commands = append(s.commands, payload.Command)
				s.mu.Unlock()

				_ = req.Reply(true, nil)
				_, _ = ch.Write([]byte(reply))
				_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
				return
			}
		}()
	}
}

func (s *fakeSSHServer) port(t *testing.T) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(s.addr)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func (s *fakeSSHServer) lastCommand() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.commands) == 0 {
		return ""
	}
	return s.commands[len(s.commands)-1]
}

func writeKnownHosts(t *testing.T, addr string, key ssh.PublicKey) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "known_hosts")
	var content string
	if key != nil {
		content = knownhosts.Line([]string{knownhosts.Normalize(addr)}, key) + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSSHRunner_Status(t *testing.T) {
	srv := startFakeSSHServer(t, "backend                          RUNNING   pid 7, uptime 2:00:00\n", 0)
	host, port := srv.port(t)

	runner := NewSSHRunner(SSHConfig{
		Host:           host,
		Port:           port,
		User:           "smoke",
		Password:       "pw",
		KnownHostsFile: writeKnownHosts(t, srv.addr, srv.hostKey),
	})

	text, err := runner.Status(context.Background(), "backend")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if text != "backend                          RUNNING   pid 7, uptime 2:00:00" {
		t.Errorf("Status() = %q", text)
	}
	if got := srv.lastCommand(); got != "sudo supervisorctl status backend" {
		t.Errorf("remote command = %q", got)
	}
}

func TestSSHRunner_NonZeroExitWithStatusText(t *testing.T) {
	srv := startFakeSSHServer(t, "backend STOPPED Not started\n", 3)
	host, port := srv.port(t)

	runner := NewSSHRunner(SSHConfig{
		Host:           host,
		Port:           port,
		User:           "smoke",
		Password:       "pw",
		KnownHostsFile: writeKnownHosts(t, srv.addr, srv.hostKey),
	})

	outcome := NewProbe(runner, ProbeConfig{}).Check(context.Background())
	if outcome.Kind != health.KindProtocol {
		t.Errorf("Kind = %v, want protocol (detail %q)", outcome.Kind, outcome.Detail)
	}
}

func TestSSHRunner_Unavailable(t *testing.T) {
	srv := startFakeSSHServer(t, "backend RUNNING\n", 0)
	host, port := srv.port(t)

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	closedAddr := closed.Addr().String()
	closed.Close()
	closedHost, closedPortStr, _ := net.SplitHostPort(closedAddr)
	closedPort, _ := strconv.Atoi(closedPortStr)

	tests := []struct {
		name   string
		config SSHConfig
	}{
		{
			name: "connection refused",
			config: SSHConfig{
				Host: closedHost, Port: closedPort, User: "smoke", Password: "pw",
				KnownHostsFile: writeKnownHosts(t, closedAddr, nil),
			},
		},
		{
			name: "unknown host key",
			config: SSHConfig{
				Host: host, Port: port, User: "smoke", Password: "pw",
				KnownHostsFile: writeKnownHosts(t, srv.addr, nil),
			},
		},
		{
			name: "wrong password",
			config: SSHConfig{
				Host: host, Port: port, User: "smoke", Password: "nope",
				KnownHostsFile: writeKnownHosts(t, srv.addr, srv.hostKey),
			},
		},
		{
			name: "no auth method",
			config: SSHConfig{
				Host: host, Port: port, User: "smoke",
				KnownHostsFile: writeKnownHosts(t, srv.addr, srv.hostKey),
			},
		},
		{
			name: "missing key file",
			config: SSHConfig{
				Host: host, Port: port, User: "smoke",
				KeyFile:        filepath.Join(t.TempDir(), "id_ed25519"),
				KnownHostsFile: writeKnownHosts(t, srv.addr, srv.hostKey),
			},
		},
		{
			name: "missing known_hosts",
			config: SSHConfig{
				Host: host, Port: port, User: "smoke", Password: "pw",
				KnownHostsFile: filepath.Join(t.TempDir(), "known_hosts"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSSHRunner(tt.config).Status(context.Background(), "backend")
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestSSHRunner_KeyAuth(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatal(err)
	}
	keyFile := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}

	runner := NewSSHRunner(SSHConfig{Host: "127.0.0.1", User: "smoke", KeyFile: keyFile})
	methods, err := runner.authMethods()
	if err != nil {
		t.Fatalf("authMethods: %v", err)
	}
	if len(methods) != 1 {
		t.Errorf("expected 1 auth method, got %d", len(methods))
	}
	if runner.addr() != "127.0.0.1:22" {
		t.Errorf("addr = %q, want default port 22", runner.addr())
	}
}
