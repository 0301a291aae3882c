package syncdata

import (
	"io"
	"path"

	"catalog-sync/internal/sshclient"
)

type scpTransport struct {
	client *sshclient.SSHClient
	dir    string
}

func dialSCP(target Target, opts Options) (Transport, error) {
	client, err := sshclient.NewSSHClient(target.Host, target.Port, sshclient.Options{
		PrivateKeyPath: opts.PrivateKeyPath,
		KnownHostsFile: opts.KnownHostsFile,
		Timeout:        opts.timeout(),
	})
	if err != nil {
		return nil, err
	}
	if err := client.Dial(); err != nil {
		return nil, err
	}
	dir := target.Dir
	if dir == "" {
		dir = "."
	}
	return &scpTransport{client: client, dir: dir}, nil
}

func (s *scpTransport) Login(username, password string) error {
	return s.client.Login(username, password)
}

func (s *scpTransport) List() ([]string, error) {
	return s.client.ListDir(s.dir)
}

func (s *scpTransport) Store(name string, r io.Reader, size int64) error {
	return s.client.Upload(r, size, path.Join(s.dir, name))
}

func (s *scpTransport) Close() error {
	return s.client.Close()
}
