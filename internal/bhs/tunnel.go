package bhs

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHConfig describes a bastion through which API traffic is tunnelled.
type SSHConfig struct {
	Host               string
	Port               int
	User               string
	PrivateKey         []byte
	HostKeyFingerprint string
}

// Tunnel dials API connections through an SSH client, connecting lazily on
// first use and reconnecting after the SSH connection is lost.
type Tunnel struct {
	addr   string
	config *ssh.ClientConfig

	mu     sync.Mutex
	client *ssh.Client
}

// NewTunnel parses the private key and prepares (but does not open) the SSH connection.
func NewTunnel(cfg SSHConfig) (*Tunnel, error) {
	if cfg.HostKeyFingerprint == "" {
		return nil, fmt.Errorf("ssh: host key fingerprint is required")
	}
	signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("ssh: parsing private key: %w", err)
	}
	return &Tunnel{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		config: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: PinnedHostKey(cfg.HostKeyFingerprint),
			Timeout:         10 * time.Second,
		},
	}, nil
}

// PinnedHostKey accepts only a host key whose SHA256 fingerprint equals want.
func PinnedHostKey(want string) ssh.HostKeyCallback {
	return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
		got := ssh.FingerprintSHA256(key)
		if got != want {
			return fmt.Errorf("ssh: host key mismatch for %s: got %s, want %s", hostname, got, want)
		}
		return nil
	}
}

// DialContext opens a connection to addr from the far side of the tunnel.
func (t *Tunnel) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	client, err := t.connect()
	if err != nil {
		return nil, err
	}
	conn, err := client.DialContext(ctx, network, addr)
	if err != nil {
		log.Printf("[bhs] ssh tunnel dial %s failed, dropping connection: %v", addr, err)
		t.reset(client)
		return nil, err
	}
	return conn, nil
}

// Transport returns an http.Transport that routes every request through the tunnel.
func (t *Tunnel) Transport(insecureSkipVerify bool) *http.Transport {
	tr := NewTransport(insecureSkipVerify)
	tr.Proxy = nil
	tr.DialContext = t.DialContext
	return tr
}

// Close tears down the SSH connection, if open.
func (t *Tunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func (t *Tunnel) connect() (*ssh.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	client, err := ssh.Dial("tcp", t.addr, t.config)
	if err != nil {
		return nil, fmt.Errorf("ssh: connecting to %s: %w", t.addr, err)
	}
	log.Printf("[bhs] ssh tunnel established via %s", t.addr)
	t.client = client
	return client, nil
}

func (t *Tunnel) reset(stale *ssh.Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == stale {
		_ = t.client.Close()
		t.client = nil
	}
}
