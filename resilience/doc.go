// Package resilience retries failing operations with exponential backoff.
//
//	info, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts: 3,
//	    RetryIf:     isTransient,
//	}, func() (*probe.Info, error) {
//	    return prober.Probe(ctx, uri)
//	})
package resilience
