package locator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/webhelper/internal/webhelper"
)

type fakeProber struct {
	respond func(ctx context.Context, inst webhelper.Instance) error
	calls   atomic.Int32
}

func (f *fakeProber) ProbeVersion(ctx context.Context, inst webhelper.Instance) error {
	f.calls.Add(1)
	return f.respond(ctx, inst)
}

var errRefused = errors.New("connection refused")

func TestLocator_FirstResponderWins(t *testing.T) {
	prober := &fakeProber{respond: func(ctx context.Context, inst webhelper.Instance) error {
		switch inst.Port {
		case 4383:
			return nil
		case 4371:
			// Also answers, but much later.
			select {
			case <-time.After(200 * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			return errRefused
		}
	}}
	l := New(prober, Options{Timeout: time.Second})

	inst, err := l.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4383, inst.Port)
	assert.False(t, inst.Secure)
	assert.EqualValues(t, 20, prober.calls.Load())
}

func TestLocator_SecurePortIsMarkedSecure(t *testing.T) {
	prober := &fakeProber{respond: func(_ context.Context, inst webhelper.Instance) error {
		if inst.Port == 4372 {
			return nil
		}
		return errRefused
	}}
	inst, err := New(prober, Options{Host: "127.0.0.1", Timeout: time.Second}).Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, webhelper.Instance{Host: "127.0.0.1", Port: 4372, Secure: true}, inst)
}

func TestLocator_UnresponsivePortsDoNotBlockPastTimeout(t *testing.T) {
	prober := &fakeProber{respond: func(ctx context.Context, _ webhelper.Instance) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	l := New(prober, Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := l.Attempt(context.Background())
	assert.ErrorIs(t, err, webhelper.ErrDiscoveryTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLocator_LocateRetriesAfterTimeout(t *testing.T) {
	var attempts atomic.Int32
	prober := &fakeProber{respond: func(_ context.Context, inst webhelper.Instance) error {
		if inst.Port != 4380 {
			return errRefused
		}
		if attempts.Add(1) == 1 {
			return errRefused
		}
		return nil
	}}
	l := New(prober, Options{Timeout: 30 * time.Millisecond})

	inst, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4380, inst.Port)
	assert.GreaterOrEqual(t, attempts.Load(), int32(2))
}

func TestLocator_LocateStopsOnCancel(t *testing.T) {
	prober := &fakeProber{respond: func(context.Context, webhelper.Instance) error { return errRefused }}
	l := New(prober, Options{Timeout: 20 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err := l.Locate(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRanges_Classify(t *testing.T) {
	r := Ranges{Secure: DefaultSecure, Insecure: DefaultInsecure}
	tests := []struct {
		port       int
		wantSecure bool
		wantOK     bool
	}{
		{4370, true, true},
		{4379, true, true},
		{4380, false, true},
		{4389, false, true},
		{4390, false, false},
		{80, false, false},
	}
	for _, tt := range tests {
		secure, ok := r.Classify(tt.port)
		assert.Equal(t, tt.wantSecure, secure, "port %d", tt.port)
		assert.Equal(t, tt.wantOK, ok, "port %d", tt.port)
	}
	assert.Len(t, DefaultSecure.Ports(), 10)
	assert.Error(t, PortRange{First: 10, Last: 5}.Validate())
}
