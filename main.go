package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/bhs-tui/app"
	"github.com/deevus/bhs-tui/config"
	"github.com/deevus/bhs-tui/internal"
	"github.com/deevus/bhs-tui/internal/bhs"
	"golang.org/x/crypto/ssh"
)

func main() {
	serverFlag := flag.String("server", "", "server profile name from config")
	configFlag := flag.String("config", config.DefaultPath(), "path to config file")
	logFlag := flag.String("log", config.DefaultLogPath(), "path to log file")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	serverName := *serverFlag
	if serverName == "" {
		names := cfg.ServerNames()
		if len(names) == 1 {
			serverName = names[0]
		} else {
			fmt.Fprintf(os.Stderr, "Multiple servers configured. Use --server flag.\nAvailable: %v\n", names)
			os.Exit(1)
		}
	}

	serverCfg, ok := cfg.Servers[serverName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: server %q not found in config\n", serverName)
		os.Exit(1)
	}

	logFile, err := openLog(*logFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log %s: %v\n", *logFlag, err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	transport := bhs.NewTransport(serverCfg.InsecureSkipVerify)

	if serverCfg.SSH != nil {
		if serverCfg.SSH.HostKeyFingerprint == "" {
			fingerprint, err := scanHostKey(serverCfg.SSH.Host, serverCfg.SSH.Port)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: host_key_fingerprint is required for SSH.\n")
				fmt.Fprintf(os.Stderr, "Could not auto-detect: %v\n", err)
				fmt.Fprintf(os.Stderr, "Get it with: ssh-keyscan -p %d %s 2>/dev/null | ssh-keygen -lf -\n", serverCfg.SSH.Port, serverCfg.SSH.Host)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error: host_key_fingerprint is required for SSH.\n")
			fmt.Fprintf(os.Stderr, "Detected fingerprint for %s:\n\n", serverCfg.SSH.Host)
			fmt.Fprintf(os.Stderr, "  host_key_fingerprint = %q\n\n", fingerprint)
			fmt.Fprintf(os.Stderr, "Add this to [servers.%s.ssh] in your config.\n", serverName)
			os.Exit(1)
		}

		privateKey, err := os.ReadFile(serverCfg.SSH.PrivateKeyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading SSH private key %s: %v\n", serverCfg.SSH.PrivateKeyPath, err)
			os.Exit(1)
		}

		tunnel, err := bhs.NewTunnel(bhs.SSHConfig{
			Host:               serverCfg.SSH.Host,
			Port:               serverCfg.SSH.Port,
			User:               serverCfg.SSH.Username,
			PrivateKey:         privateKey,
			HostKeyFingerprint: serverCfg.SSH.HostKeyFingerprint,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating SSH tunnel: %v\n", err)
			os.Exit(1)
		}
		defer tunnel.Close()
		transport = tunnel.Transport(serverCfg.InsecureSkipVerify)
	}

	session := internal.NewSession()
	client := bhs.NewClient(bhs.ClientParams{
		BaseURL:    serverCfg.BaseURL,
		Tokens:     session,
		HTTPClient: newHTTPClient(transport),
	})
	log.Printf("[bhs] using %s (profile %s)", client.BaseURL(), serverName)

	root := app.New(app.Params{
		Services:   internal.NewRemoteServices(client),
		Session:    session,
		ServerName: serverName,
		BaseURL:    client.BaseURL(),
	})
	defer root.Close()

	vxApp, err := vxfw.NewApp(vaxis.Options{})
	if err != nil {
		log.Fatal(err)
	}
	root.SetPostEvent(vxApp.PostEvent)

	if err := vxApp.Run(root); err != nil {
		log.Fatal(err)
	}
}

// newHTTPClient returns the client for API requests. Requests carry no
// deadline of their own; they end when the view that issued them is left.
func newHTTPClient(transport http.RoundTripper) *http.Client {
	return &http.Client{Transport: transport}
}

// openLog opens path for appending, creating its directory if needed.
func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

// scanHostKey connects to an SSH server and returns the host key fingerprint.
func scanHostKey(host string, port int) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var fingerprint string
	cfg := &ssh.ClientConfig{
		User: "probe",
		HostKeyCallback: func(_ string, _ net.Addr, key ssh.PublicKey) error {
			fingerprint = ssh.FingerprintSHA256(key)
			return nil
		},
		Timeout: 5 * time.Second,
	}
	conn, err := ssh.Dial("tcp", addr, cfg)
	if conn != nil {
		conn.Close()
	}
	if fingerprint != "" {
		return fingerprint, nil
	}
	return "", fmt.Errorf("could not connect to %s: %v", addr, err)
}
