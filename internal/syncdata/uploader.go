// Package syncdata pushes the staged image folder to the remote server,
// uploading only the files the server does not list yet.
package syncdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"catalog-sync/internal/events"
	"catalog-sync/internal/status"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds connecting, the control connection and the SSH
// handshake when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

var (
	ErrConnect        = errors.New("connect failed")
	ErrAuth           = errors.New("login failed")
	ErrTransfer       = errors.New("transfer failed")
	ErrStaging        = errors.New("staging folder unreadable")
	ErrSyncInProgress = errors.New("an upload is already running")
)

// State is a step of an upload run.
type State int32

const (
	Idle State = iota
	Connecting
	Listing
	Diffing
	Transferring
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Listing:
		return "listing"
	case Diffing:
		return "diffing"
	case Transferring:
		return "transferring"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// Options are the resolved settings for one run.
type Options struct {
	StagingDir     string
	RemoteURL      string
	Username       string
	Password       string
	PrivateKeyPath string
	KnownHostsFile string
	Timeout        time.Duration
}

// Outcome is the terminal result of a run. Files uploaded before a
// cancellation or failure stay on the server.
type Outcome struct {
	// RunID tags the run's diagnostic log entries.
	RunID    string
	State    State
	Uploaded []string
	// Pending is the size of the upload set.
	Pending int
	Err     error
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s: %v", o.State, o.Err)
	}
	return fmt.Sprintf("%s (%d/%d uploaded)", o.State, len(o.Uploaded), o.Pending)
}

// Uploader runs at most one sync at a time.
type Uploader struct {
	Dial DialFunc
	Sink status.Sink
	// Progress, when set, is called after each uploaded file.
	Progress func(done, total int)

	mu      sync.Mutex
	running bool
}

func NewUploader(sink status.Sink) *Uploader {
	return &Uploader{Dial: Dial, Sink: sink}
}

func (u *Uploader) acquire() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.running {
		return false
	}
	u.running = true
	return true
}

func (u *Uploader) release() {
	u.mu.Lock()
	u.running = false
	u.mu.Unlock()
}

// Running reports whether a run is in progress.
func (u *Uploader) Running() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.running
}

// Run synchronizes in the calling goroutine. Cancelling ctx stops the run
// before the next file; the file being sent is finished first.
func (u *Uploader) Run(ctx context.Context, opts Options) Outcome {
	if !u.acquire() {
		return Outcome{State: Failed, Err: ErrSyncInProgress}
	}
	defer u.release()
	id := uuid.NewString()
	out := u.run(ctx, id, opts, func(State) {})
	out.RunID = id
	return u.finish(out)
}

// Task is a run executing in the background.
type Task struct {
	cancel  context.CancelFunc
	done    chan struct{}
	state   atomic.Int32
	outcome Outcome
}

// Start launches a run on its own goroutine and returns immediately.
func (u *Uploader) Start(ctx context.Context, opts Options) (*Task, error) {
	if !u.acquire() {
		return nil, ErrSyncInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		id := uuid.NewString()
		out := u.run(ctx, id, opts, func(s State) { t.state.Store(int32(s)) })
		out.RunID = id
		t.outcome = u.finish(out)
		t.state.Store(int32(out.State))
		u.release()
	}()
	return t, nil
}

// Cancel asks the run to stop before its next file.
func (t *Task) Cancel() { t.cancel() }

// Done is closed once the outcome is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the run ends.
func (t *Task) Wait() Outcome {
	<-t.done
	return t.outcome
}

func (t *Task) State() State { return State(t.state.Load()) }

// finish emits the terminal line and publishes the outcome.
func (u *Uploader) finish(out Outcome) Outcome {
	p := status.NewPrinter(u.Sink)
	switch out.State {
	case Completed:
		p.Info("Upload completed")
	case Cancelled:
		p.Info("Upload stopped")
	default:
		p.Error("Can't upload files: %v", out.Err)
	}
	log.Info().Str("run_id", out.RunID).Str("outcome", out.State.String()).Int("uploaded", len(out.Uploaded)).
		Int("pending", out.Pending).AnErr("error", out.Err).Msg("sync finished")
	events.GlobalBus.Publish(events.EventSyncFinished, out)
	return out
}

func (u *Uploader) run(ctx context.Context, runID string, opts Options, setState func(State)) Outcome {
	p := status.NewPrinter(u.Sink)
	logger := log.With().Str("run_id", runID).Logger()
	failed := func(out Outcome, kind error, err error) Outcome {
		out.State = Failed
		out.Err = fmt.Errorf("%w: %v", kind, err)
		return out
	}

	setState(Connecting)
	target, err := ParseTarget(opts.RemoteURL)
	if err != nil {
		return failed(Outcome{}, ErrConnect, err)
	}
	username, password := opts.Username, opts.Password
	if username == "" {
		username, password = target.Username, target.Password
	}

	dial := u.Dial
	if dial == nil {
		dial = Dial
	}
	logger.Debug().Str("scheme", target.Scheme).Str("addr", target.Address()).Msg("dialing remote")
	tr, err := dial(ctx, target, opts)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{State: Cancelled}
		}
		return failed(Outcome{}, ErrConnect, err)
	}
	defer func() {
		if cerr := tr.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("closing remote session")
		}
	}()

	if err := tr.Login(username, password); err != nil {
		return failed(Outcome{}, ErrAuth, err)
	}

	setState(Listing)
	remote, err := tr.List()
	if err != nil {
		return failed(Outcome{}, ErrTransfer, err)
	}

	setState(Diffing)
	local, err := LocalFiles(opts.StagingDir)
	if err != nil {
		return failed(Outcome{}, ErrStaging, err)
	}
	pending := UploadSet(local, remote)
	out := Outcome{Pending: len(pending)}
	logger.Debug().Int("local", len(local)).Int("remote", len(remote)).Int("pending", len(pending)).Msg("upload set computed")
	p.Info("(%d) new images found.", len(pending))

	setState(Transferring)
	for i, f := range pending {
		if ctx.Err() != nil {
			out.State = Cancelled
			return out
		}
		p.Info("Uploading file %d / %d", i+1, len(pending))
		if err := store(tr, f); err != nil {
			return failed(out, ErrTransfer, fmt.Errorf("%s: %v", f.Name, err))
		}
		out.Uploaded = append(out.Uploaded, f.Name)
		if u.Progress != nil {
			u.Progress(i+1, len(pending))
		}
	}
	out.State = Completed
	return out
}

func store(tr Transport, f LocalFile) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer file.Close()
	return tr.Store(f.Name, file, f.Size)
}
