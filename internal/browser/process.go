package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agclean/agclean/pkg/logger"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	DefaultCloseTimeout = 5 * time.Second
	DefaultKillTimeout  = 3 * time.Second
	pollInterval        = 100 * time.Millisecond
)

// ErrStillRunning is returned when browser processes outlive a close or kill.
var ErrStillRunning = errors.New("browser processes are still running")

// proc is the subset of a process handle the inspector needs.
type proc interface {
	PID() int32
	Name(ctx context.Context) (string, error)
	Terminate(ctx context.Context) error
	Kill(ctx context.Context) error
	Running(ctx context.Context) (bool, error)
}

type osProc struct{ p *process.Process }

func (o osProc) PID() int32 { return o.p.Pid }
func (o osProc) Name(ctx context.Context) (string, error) {
	return o.p.NameWithContext(ctx)
}
func (o osProc) Terminate(ctx context.Context) error { return o.p.TerminateWithContext(ctx) }
func (o osProc) Kill(ctx context.Context) error      { return o.p.KillWithContext(ctx) }
func (o osProc) Running(ctx context.Context) (bool, error) {
	return o.p.IsRunningWithContext(ctx)
}

// listProcesses is swapped in tests.
var listProcesses = func(ctx context.Context) ([]proc, error) {
	ps, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]proc, len(ps))
	for i, p := range ps {
		out[i] = osProc{p}
	}
	return out, nil
}

// InspectorOptions configures an Inspector.
type InspectorOptions struct {
	DryRun       bool
	CloseTimeout time.Duration
	KillTimeout  time.Duration
	Logger       logger.Logger
}

// Inspector finds and stops browser processes.
type Inspector struct {
	locator *Locator
	opts    InspectorOptions
}

// NewInspector returns an Inspector matching process names from locator.
func NewInspector(locator *Locator, opts InspectorOptions) *Inspector {
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = DefaultCloseTimeout
	}
	if opts.KillTimeout <= 0 {
		opts.KillTimeout = DefaultKillTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Inspector{locator: locator, opts: opts}
}

// processes returns the running processes of a browser.
func (i *Inspector) processes(ctx context.Context, key string) ([]proc, error) {
	b, err := i.locator.Get(key)
	if err != nil {
		return nil, err
	}
	all, err := listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	var out []proc
	for _, p := range all {
		name, err := p.Name(ctx)
		if err != nil {
			// Gone or access denied.
			continue
		}
		for _, want := range b.ProcessNames {
			if strings.EqualFold(name, want) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// IsRunning reports whether any process of the browser is alive.
func (i *Inspector) IsRunning(key string) bool {
	if _, err := i.locator.Get(key); err != nil {
		return false
	}
	ps, err := i.processes(context.Background(), key)
	if err != nil {
		i.opts.Logger.Warning("Could not check whether %s is running: %v", key, err)
		return false
	}
	return len(ps) > 0
}

// CloseGracefully asks every process of the browser to exit and waits up to
// the close timeout.
func (i *Inspector) CloseGracefully(ctx context.Context, key string) error {
	log := i.opts.Logger
	log.Info("Attempting to close %s gracefully...", key)
	if i.opts.DryRun {
		log.Info("[DRY RUN] Would close %s", key)
		return nil
	}
	ps, err := i.processes(ctx, key)
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		log.Info("%s is not running", key)
		return nil
	}
	for _, p := range ps {
		if err := p.Terminate(ctx); err != nil {
			log.Warning("Could not terminate PID %d: %v", p.PID(), err)
		} else {
			log.Debug("Sent terminate signal to PID %d", p.PID())
		}
	}
	if alive := i.wait(ctx, ps, i.opts.CloseTimeout); alive > 0 {
		log.Warning("%d processes still alive after graceful close", alive)
		return fmt.Errorf("%w: %d %s processes", ErrStillRunning, alive, key)
	}
	log.Info("Successfully closed %s", key)
	return nil
}

// Kill force-stops every process of the browser and waits up to the kill
// timeout.
func (i *Inspector) Kill(ctx context.Context, key string) error {
	log := i.opts.Logger
	log.Warning("Force killing %s processes...", key)
	if i.opts.DryRun {
		log.Info("[DRY RUN] Would kill %s processes", key)
		return nil
	}
	ps, err := i.processes(ctx, key)
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		log.Info("No %s processes to kill", key)
		return nil
	}
	for _, p := range ps {
		if err := p.Kill(ctx); err != nil {
			log.Error("Could not kill PID %d: %v", p.PID(), err)
		} else {
			log.Debug("Killed PID %d", p.PID())
		}
	}
	if alive := i.wait(ctx, ps, i.opts.KillTimeout); alive > 0 {
		log.Error("Failed to kill %d processes", alive)
		return fmt.Errorf("%w: %d %s processes", ErrStillRunning, alive, key)
	}
	log.Info("Successfully killed all %s processes", key)
	return nil
}

// wait polls until every process exits, the timeout passes or ctx is done.
// It returns the number still alive.
func (i *Inspector) wait(ctx context.Context, ps []proc, timeout time.Duration) int {
	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		alive := 0
		for _, p := range ps {
			if ok, err := p.Running(ctx); err == nil && ok {
				alive++
			}
		}
		if alive == 0 {
			return 0
		}
		select {
		case <-deadline.Done():
			return alive
		case <-ticker.C:
		}
	}
}
