// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package acquirer

import "time"

const maxRetryBackoff = 6000 * time.Millisecond

// backoff returns the delay before retry attempt n (1-indexed), per the
// spec's literal formula: min(6000ms, attempts*2000ms).
func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 2000 * time.Millisecond
	if d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}

// clampRetryLimit enforces the 1..10 range, defaulting to 3 outside it.
func clampRetryLimit(n int) int {
	if n < 1 || n > 10 {
		return 3
	}
	return n
}
