// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics records solve statistics. Prometheus exports them on a
// caller-supplied registry; Nop discards them.
package metrics
