package sshclient

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Options describe how to reach and verify the server.
type Options struct {
	PrivateKeyPath string
	// KnownHostsFile enables host key checking; empty accepts any host key.
	KnownHostsFile string
	Timeout        time.Duration
}

// SSHClient represents an SSH client connection
type SSHClient struct {
	conn    net.Conn
	client  *ssh.Client
	host    string
	port    string
	opts    Options
	hostKey ssh.HostKeyCallback
}

// NewSSHClient prepares a client; Dial and Login (or Connect) open it.
func NewSSHClient(host, port string, opts Options) (*SSHClient, error) {
	hostKey := ssh.InsecureIgnoreHostKey()
	if opts.KnownHostsFile != "" {
		cb, err := knownhosts.New(opts.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to load known hosts: %w", err)
		}
		hostKey = cb
	}
	if port == "" {
		port = "22"
	}
	return &SSHClient{host: host, port: port, opts: opts, hostKey: hostKey}, nil
}

// Connect dials and authenticates.
func (c *SSHClient) Connect(username, password string) error {
	if err := c.Dial(); err != nil {
		return err
	}
	if err := c.Login(username, password); err != nil {
		c.Close()
		return err
	}
	return nil
}

// Dial opens the TCP connection only.
func (c *SSHClient) Dial() error {
	conn, err := net.DialTimeout("tcp", c.addr(), c.opts.Timeout)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	c.conn = conn
	return nil
}

// Login runs the SSH handshake on the dialed connection, authenticating with
// the private key (if configured) and the password. The timeout bounds the
// whole handshake.
func (c *SSHClient) Login(username, password string) error {
	if c.conn == nil {
		return fmt.Errorf("SSH connection not dialed")
	}
	auth, err := c.authMethods(password)
	if err != nil {
		return err
	}
	config := &ssh.ClientConfig{
		User:            username,
		Auth:            auth,
		HostKeyCallback: c.hostKey,
		Timeout:         c.opts.Timeout,
	}
	if c.opts.Timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.opts.Timeout))
	}
	sc, chans, reqs, err := ssh.NewClientConn(c.conn, c.addr(), config)
	if err != nil {
		return fmt.Errorf("ssh handshake failed: %w", err)
	}
	c.conn.SetDeadline(time.Time{})
	c.client = ssh.NewClient(sc, chans, reqs)
	return nil
}

func (c *SSHClient) authMethods(password string) ([]ssh.AuthMethod, error) {
	var auth []ssh.AuthMethod
	if c.opts.PrivateKeyPath != "" {
		key, err := os.ReadFile(c.opts.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("unable to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if password != "" {
		auth = append(auth, ssh.Password(password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no password or private key configured")
	}
	return auth, nil
}

func (c *SSHClient) addr() string {
	return net.JoinHostPort(c.host, c.port)
}

// Close closes the SSH connection
func (c *SSHClient) Close() error {
	var err error
	if c.client != nil {
		err = c.client.Close()
	} else if c.conn != nil {
		err = c.conn.Close()
	}
	c.client = nil
	c.conn = nil
	return err
}

// RunCommandWithOutput executes a command on the remote server and returns
// output. With a timeout set, a server that stops responding fails the
// command and the connection.
func (c *SSHClient) RunCommandWithOutput(cmd string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("SSH client not connected")
	}
	if c.opts.Timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.opts.Timeout))
		defer c.conn.SetDeadline(time.Time{})
	}
	session, err := c.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stderr bytes.Buffer
	session.Stderr = &stderr
	output, err := session.Output(cmd)
	if err != nil {
		return "", fmt.Errorf("command failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(output), nil
}

// ListDir returns the entry names of a remote directory.
func (c *SSHClient) ListDir(dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	out, err := c.RunCommandWithOutput("ls -1A -- " + ShellQuote(dir))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// Upload streams size bytes from r into remotePath using the scp sink protocol.
func (c *SSHClient) Upload(r io.Reader, size int64, remotePath string) error {
	if c.client == nil {
		return fmt.Errorf("SSH client not connected")
	}
	session, err := c.client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	targetDir := path.Dir(remotePath)
	if err := session.Start("scp -t " + ShellQuote(targetDir)); err != nil {
		return fmt.Errorf("failed to start scp on remote: %w", err)
	}

	ackTimeout := c.opts.Timeout
	if ackTimeout <= 0 {
		ackTimeout = 10 * time.Second
	}
	acks := bufio.NewReader(stdout)
	readAck := func() error {
		ch := make(chan error, 1)
		go func() { ch <- readSCPAck(acks) }()
		select {
		case err := <-ch:
			return err
		case <-time.After(ackTimeout):
			return fmt.Errorf("timeout waiting for scp ack")
		}
	}
	abort := func(err error) error {
		stdin.Close()
		session.Wait()
		return err
	}

	if err := readAck(); err != nil {
		return abort(err)
	}
	fmt.Fprintf(stdin, "C0644 %d %s\n", size, path.Base(remotePath))
	if err := readAck(); err != nil {
		return abort(err)
	}
	if _, err := io.CopyN(stdin, r, size); err != nil {
		return abort(fmt.Errorf("failed to send file data: %w", err))
	}
	if _, err := fmt.Fprint(stdin, "\x00"); err != nil {
		return abort(fmt.Errorf("failed to send scp terminator: %w", err))
	}
	if err := readAck(); err != nil {
		return abort(err)
	}

	stdin.Close()
	if err := session.Wait(); err != nil {
		return fmt.Errorf("remote scp command failed: %w", err)
	}
	return nil
}

// readSCPAck reads one scp status byte. Warnings (1) and fatal errors (2)
// carry a message on the same stream, terminated by a newline.
func readSCPAck(r *bufio.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read scp ack: %w", err)
	}
	switch b {
	case 0:
		return nil
	case 1, 2:
		msg, _ := r.ReadString('\n')
		return fmt.Errorf("scp remote error: %s", strings.TrimSpace(msg))
	}
	return fmt.Errorf("unknown scp ack: %v", b)
}

// ShellQuote wraps s in single quotes for a POSIX shell.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
