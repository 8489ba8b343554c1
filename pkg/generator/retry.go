package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newBackOff は BaseDelay * 2^i を揺らぎなしで返し、MaxAttempts-1 回で打ち切るバックオフを生成します。
func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := uint64(0)
	if p.MaxAttempts > 1 {
		retries = uint64(p.MaxAttempts - 1)
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, retries), ctx)
}

// sendWithRetry は一時的な失敗 (429/5xx) のみ再試行しながら transport を呼び出します。
// 再試行を使い切った場合は最後の *BackendError に試行回数を付けてそのまま返します。
func (a *Adapter) sendWithRetry(ctx context.Context, apiKey string, payload Payload) (*BackendResponse, error) {
	var (
		resp     *BackendResponse
		attempts int
	)

	operation := func() error {
		attempts++
		r, err := a.transport.Send(ctx, apiKey, payload)
		if err == nil {
			resp = r
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}

		var backendErr *BackendError
		if errors.As(err, &backendErr) {
			backendErr.Attempts = attempts
			if backendErr.Retryable() {
				return err
			}
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "一時的なエラーのため再試行します",
			"transport", a.transport.Name(),
			"attempt", attempts,
			"max_attempts", a.retry.MaxAttempts,
			"wait", wait,
			"error", err)
	}

	var timer backoff.Timer
	if a.newTimer != nil {
		timer = a.newTimer()
	}

	if err := backoff.RetryNotifyWithTimer(operation, a.retry.newBackOff(ctx), notify, timer); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("generation canceled after %d attempts: %w", attempts, err)
		}
		return nil, err
	}
	return resp, nil
}
