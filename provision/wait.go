package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juju/retry"
	"go.uber.org/zap"
)

// WaitPolicy bounds the readiness wait. The zero values of MaxAttempts and
// Timeout mean "no limit"; a BackoffFactor of 1 or less keeps the delay
// fixed.
type WaitPolicy struct {
	Delay         time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	MaxAttempts   int
	Timeout       time.Duration
}

// DefaultWaitPolicy polls every 100 seconds until the instance is ready.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		Delay:         100 * time.Second,
		BackoffFactor: 1,
	}
}

// Validate rejects policies the retry loop cannot run.
func (w WaitPolicy) Validate() error {
	if w.Delay <= 0 {
		return fmt.Errorf("readiness delay must be positive (got %s)", w.Delay)
	}
	if w.MaxAttempts < 0 {
		return fmt.Errorf("readiness attempts must not be negative (got %d)", w.MaxAttempts)
	}
	if w.Timeout < 0 || w.MaxDelay < 0 {
		return fmt.Errorf("readiness timeout and max delay must not be negative")
	}
	return nil
}

func (w WaitPolicy) attempts() int {
	if w.MaxAttempts == 0 {
		return retry.UnlimitedAttempts
	}
	return w.MaxAttempts
}

func (w WaitPolicy) backoff() func(time.Duration, int) time.Duration {
	if w.BackoffFactor <= 1 {
		return nil
	}
	factor := w.BackoffFactor
	return func(delay time.Duration, _ int) time.Duration {
		return time.Duration(float64(delay) * factor)
	}
}

var errPending = errors.New("endpoint not yet available")

// waitForEndpoint polls the instance descriptor until it carries an
// endpoint. It cannot tell a slow instance from a failed or deleted one;
// only the policy limits or ctx end the wait in those cases.
func (p *Provisioner) waitForEndpoint(ctx context.Context, identifier string) (Endpoint, error) {
	var (
		endpoint Endpoint
		status   string
	)

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			instances, err := p.cloud.DescribeDBInstances(ctx, identifier)
			if err != nil {
				return fmt.Errorf("describing database instance %q: %w", identifier, err)
			}
			instance, found := findInstance(instances, identifier)
			if !found {
				status = ""
				return errPending
			}
			status = instance.Status
			if instance.Endpoint == nil || instance.Endpoint.Address == "" {
				return errPending
			}
			endpoint = *instance.Endpoint
			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, errPending)
		},
		NotifyFunc: func(_ error, attempt int) {
			p.logger.Info("database instance not ready",
				zap.String("identifier", identifier),
				zap.String("status", status),
				zap.Int("attempt", attempt),
			)
		},
		Attempts:    p.wait.attempts(),
		Delay:       p.wait.Delay,
		MaxDelay:    p.wait.MaxDelay,
		MaxDuration: p.wait.Timeout,
		BackoffFunc: p.wait.backoff(),
		Clock:       p.clock,
		Stop:        ctx.Done(),
	})

	switch {
	case err == nil:
		return endpoint, nil
	case retry.IsRetryStopped(err):
		return Endpoint{}, fmt.Errorf("waiting for database instance %q: %w", identifier, context.Cause(ctx))
	case retry.IsAttemptsExceeded(err), retry.IsDurationExceeded(err):
		return Endpoint{}, &NotReadyError{Identifier: identifier, Status: status, Err: err}
	default:
		return Endpoint{}, err
	}
}

// findInstance matches identifiers case-insensitively; RDS stores them in
// lower case whatever case the create request used.
func findInstance(instances []DBInstance, identifier string) (DBInstance, bool) {
	for _, instance := range instances {
		if strings.EqualFold(instance.Identifier, identifier) {
			return instance, true
		}
	}
	return DBInstance{}, false
}
