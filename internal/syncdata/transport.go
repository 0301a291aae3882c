package syncdata

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"
)

// Transport is one authenticated session with the remote image directory.
type Transport interface {
	// Login authenticates and prepares binary, passive transfers into the
	// target directory.
	Login(username, password string) error
	// List returns the entry names of the target directory.
	List() ([]string, error)
	// Store writes size bytes from r to name inside the target directory.
	Store(name string, r io.Reader, size int64) error
	Close() error
}

// DialFunc opens the control connection for target.
type DialFunc func(ctx context.Context, target Target, opts Options) (Transport, error)

// Target is a parsed remote URL.
type Target struct {
	Scheme   string
	Host     string
	Port     string
	Dir      string
	Username string
	Password string
}

func (t Target) Address() string {
	return net.JoinHostPort(t.Host, t.Port)
}

var defaultPorts = map[string]string{
	"ftp": "21",
	"ssh": "22",
	"scp": "22",
}

// ParseTarget accepts "ftp://host[:port][/dir]", "ssh://host[:port][/dir]",
// "scp://..." or a bare "host[:port]" meaning FTP.
func ParseTarget(remoteURL string) (Target, error) {
	raw := strings.TrimSpace(remoteURL)
	if raw == "" {
		return Target{}, fmt.Errorf("remote url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "ftp://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid remote url %q: %v", remoteURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	port, known := defaultPorts[scheme]
	if !known {
		return Target{}, fmt.Errorf("unsupported remote scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("remote url %q has no host", remoteURL)
	}
	if p := u.Port(); p != "" {
		port = p
	}
	t := Target{
		Scheme: scheme,
		Host:   u.Hostname(),
		Port:   port,
		Dir:    u.Path,
	}
	if t.Dir == "/" {
		t.Dir = ""
	}
	if u.User != nil {
		t.Username = u.User.Username()
		t.Password, _ = u.User.Password()
	}
	return t, nil
}

// Dial picks the transport for target's scheme.
func Dial(ctx context.Context, target Target, opts Options) (Transport, error) {
	switch target.Scheme {
	case "ftp":
		return dialFTP(ctx, target, opts.timeout())
	case "ssh", "scp":
		return dialSCP(target, opts)
	}
	return nil, fmt.Errorf("unsupported remote scheme %q", target.Scheme)
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}
