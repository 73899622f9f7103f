package config

import "time"

type SessionConfig interface {
	GetKeepAliveInterval() time.Duration
	GetRoutineRefreshInterval() time.Duration
	GetFrequentRefreshInterval() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetKeepAliveInterval() time.Duration {
	return 30 * time.Minute
}

// GetRoutineRefreshInterval is the authoritative refresh period, chosen to
// sit safely inside the 24 hour token lifetime.
func (Session) GetRoutineRefreshInterval() time.Duration {
	return 20 * time.Hour
}

// GetFrequentRefreshInterval is the defensive extension for active sessions.
// Failures of this task never terminate the session.
func (Session) GetFrequentRefreshInterval() time.Duration {
	return 2 * time.Hour
}
