package locator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/webhelper/internal/webhelper"
)

// Prober checks whether a companion answers at an instance.
type Prober interface {
	ProbeVersion(ctx context.Context, inst webhelper.Instance) error
}

const defaultTimeout = 5 * time.Second

// Options configures a Locator.
type Options struct {
	Host   string
	Ranges Ranges

	// Timeout bounds each discovery attempt and each individual probe.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Locator finds the port the companion is currently listening on.
type Locator struct {
	prober  Prober
	host    string
	ranges  Ranges
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Locator that probes through prober.
func New(prober Prober, opts Options) *Locator {
	l := &Locator{
		prober:  prober,
		host:    opts.Host,
		ranges:  opts.Ranges,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if l.ranges == (Ranges{}) {
		l.ranges = Ranges{Secure: DefaultSecure, Insecure: DefaultInsecure}
	}
	if l.timeout <= 0 {
		l.timeout = defaultTimeout
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Locate retries discovery attempts until one succeeds or ctx ends.
func (l *Locator) Locate(ctx context.Context) (webhelper.Instance, error) {
	for attempt := 1; ; attempt++ {
		inst, err := l.Attempt(ctx)
		if err == nil {
			l.logger.Info("companion located",
				slog.Int("port", inst.Port),
				slog.Bool("secure", inst.Secure),
				slog.Int("attempt", attempt),
			)
			return inst, nil
		}
		if !errors.Is(err, webhelper.ErrDiscoveryTimeout) {
			return webhelper.Instance{}, err
		}
		l.logger.Debug("no companion port answered, retrying", slog.Int("attempt", attempt))
	}
}

type probeResult struct {
	inst webhelper.Instance
	err  error
}

// Attempt probes every candidate port concurrently and returns the first one
// that answers. Slower probes are abandoned; they finish against their own
// timeout and their results are dropped into a buffered channel nobody reads.
func (l *Locator) Attempt(ctx context.Context) (webhelper.Instance, error) {
	candidates := l.candidates()
	results := make(chan probeResult, len(candidates))

	for _, inst := range candidates {
		go func(inst webhelper.Instance) {
			probeCtx, cancel := context.WithTimeout(ctx, l.timeout)
			defer cancel()
			results <- probeResult{inst: inst, err: l.prober.ProbeVersion(probeCtx, inst)}
		}(inst)
	}

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	failed := 0
	for {
		select {
		case <-ctx.Done():
			return webhelper.Instance{}, ctx.Err()
		case <-timer.C:
			return webhelper.Instance{}, webhelper.ErrDiscoveryTimeout
		case res := <-results:
			if res.err == nil {
				return res.inst, nil
			}
			failed++
			if failed == len(candidates) {
				// Every port refused; still wait out the attempt.
				select {
				case <-ctx.Done():
					return webhelper.Instance{}, ctx.Err()
				case <-timer.C:
					return webhelper.Instance{}, webhelper.ErrDiscoveryTimeout
				}
			}
		}
	}
}

func (l *Locator) candidates() []webhelper.Instance {
	var out []webhelper.Instance
	for _, port := range l.ranges.Secure.Ports() {
		out = append(out, webhelper.Instance{Host: l.host, Port: port, Secure: true})
	}
	for _, port := range l.ranges.Insecure.Ports() {
		out = append(out, webhelper.Instance{Host: l.host, Port: port, Secure: false})
	}
	return out
}
