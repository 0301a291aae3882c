package syncdata

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/jlaffaye/ftp"
)

// ftpTransport uses passive mode (EPSV, falling back to PASV) for every data
// connection, which is the client library's default.
type ftpTransport struct {
	conn *ftp.ServerConn
	dir  string
}

// dialFTP fails unless the server greets with a positive completion reply.
// Every read and write on the control and data connections must make progress
// within timeout. ctx only bounds the control connection dial, so a cancelled
// run still finishes the file in flight.
func dialFTP(ctx context.Context, target Target, timeout time.Duration) (Transport, error) {
	dialer := &net.Dialer{Timeout: timeout}
	dialCtx := ctx
	conn, err := ftp.Dial(target.Address(),
		ftp.DialWithDialFunc(func(network, address string) (net.Conn, error) {
			c, err := dialer.DialContext(dialCtx, network, address)
			dialCtx = context.Background()
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: c, timeout: timeout}, nil
		}),
		ftp.DialWithShutTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}
	return &ftpTransport{conn: conn, dir: target.Dir}, nil
}

// deadlineConn pushes the deadline forward before each Read and Write, so a
// stalled server fails the operation instead of blocking it.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

func (f *ftpTransport) Login(username, password string) error {
	if err := f.conn.Login(username, password); err != nil {
		return err
	}
	if err := f.conn.Type(ftp.TransferTypeBinary); err != nil {
		return err
	}
	if f.dir != "" {
		return f.conn.ChangeDir(f.dir)
	}
	return nil
}

func (f *ftpTransport) List() ([]string, error) {
	entries, err := f.conn.List("")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		names = append(names, e.Name)
	}
	return names, nil
}

func (f *ftpTransport) Store(name string, r io.Reader, _ int64) error {
	return f.conn.Stor(name, r)
}

func (f *ftpTransport) Close() error {
	return f.conn.Quit()
}
