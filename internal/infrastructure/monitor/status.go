package monitor

import "time"

// DependencyStatus is the last probe result of one dependency.
type DependencyStatus struct {
	Online    bool   `json:"online"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Status is a point-in-time snapshot of every registered check.
type Status struct {
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	StorageSize  int                         `json:"storage_size,omitempty"`
	LastCheck    time.Time                   `json:"last_check"`
}

// Healthy reports whether every dependency answered. A snapshot taken before
// the first probe is not healthy.
func (s Status) Healthy() bool {
	if s.LastCheck.IsZero() {
		return false
	}
	for _, dep := range s.Dependencies {
		if !dep.Online {
			return false
		}
	}
	return true
}
