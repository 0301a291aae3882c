package sshclient

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

func TestShellQuote(t *testing.T) {
	cases := map[string]string{
		"/var/www/images": `'/var/www/images'`,
		"it's":            `'it'"'"'s'`,
		"":                `''`,
	}
	for in, want := range cases {
		if got := ShellQuote(in); got != want {
			t.Fatalf("ShellQuote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestAuthMethodsRequireCredentials(t *testing.T) {
	c, err := NewSSHClient("example.org", "", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.port != "22" {
		t.Fatalf("expected default port 22, got %s", c.port)
	}
	if _, err := c.authMethods(""); err == nil {
		t.Fatalf("expected error without password or key")
	}
	methods, err := c.authMethods("secret")
	if err != nil || len(methods) != 1 {
		t.Fatalf("expected one password method, got %d (%v)", len(methods), err)
	}
}

func TestLoginWithoutDialFails(t *testing.T) {
	c, _ := NewSSHClient("example.org", "2222", Options{})
	if err := c.Login("u", "p"); err == nil {
		t.Fatalf("expected error when not dialed")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("closing an unopened client should be a no-op: %v", err)
	}
}

func TestReadSCPAck(t *testing.T) {
	cases := []struct {
		stream  string
		wantErr string
	}{
		{"\x00", ""},
		{"\x01scp: /srv/images/A.jpg: Permission denied\n", "scp remote error: scp: /srv/images/A.jpg: Permission denied"},
		{"\x02scp: /srv/missing: No such file or directory\n\x00", "scp remote error: scp: /srv/missing: No such file or directory"},
		{"\x07", "unknown scp ack: 7"},
		{"", "failed to read scp ack"},
	}
	for _, tc := range cases {
		err := readSCPAck(bufio.NewReader(strings.NewReader(tc.stream)))
		if tc.wantErr == "" {
			if err != nil {
				t.Errorf("readSCPAck(%q) = %v, want nil", tc.stream, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("readSCPAck(%q) = %v, want %q", tc.stream, err, tc.wantErr)
		}
	}
}

func TestReadSCPAckLeavesNextAckReadable(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\x01scp: warning\n\x00"))
	if err := readSCPAck(r); err == nil {
		t.Fatal("expected the warning as an error")
	}
	if err := readSCPAck(r); err != nil {
		t.Fatalf("second ack = %v, want nil", err)
	}
}

// startSilentServer accepts SSH sessions and exec requests but never writes
// command output or exits.
func startSilentServer(t *testing.T) (host, port string) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	config := &ssh.ServerConfig{
		PasswordCallback: func(ssh.ConnMetadata, []byte) (*ssh.Permissions, error) {
			return nil, nil
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	t.Cleanup(func() {
		close(done)
		ln.Close()
	})
	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		go func() {
			<-done
			nc.Close()
		}()
		_, chans, reqs, err := ssh.NewServerConn(nc, config)
		if err != nil {
			return
		}
		go ssh.DiscardRequests(reqs)
		for nch := range chans {
			_, creqs, err := nch.Accept()
			if err != nil {
				continue
			}
			go func() {
				for req := range creqs {
					req.Reply(req.Type == "exec", nil)
				}
			}()
		}
	}()
	host, port, _ = net.SplitHostPort(ln.Addr().String())
	return host, port
}

func TestListDirTimesOutWhenServerStalls(t *testing.T) {
	host, port := startSilentServer(t)
	c, err := NewSSHClient(host, port, Options{Timeout: 300 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Connect("shop", "secret"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := c.ListDir("/srv/images")
		errc <- err
	}()
	select {
	case err := <-errc:
		if err == nil {
			t.Fatal("listing against a silent server succeeded")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listing did not time out against a silent server")
	}
}
