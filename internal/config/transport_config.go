package config

import "time"

type TransportConfig interface {
	GetRequestTimeout() time.Duration
	GetUploadTimeout() time.Duration
}

type Transport struct{}

var _ TransportConfig = Transport{}

func (Transport) GetRequestTimeout() time.Duration {
	return 15 * time.Second
}

// GetUploadTimeout bounds multipart uploads (seafarer documents, certificates).
func (Transport) GetUploadTimeout() time.Duration {
	return 5 * time.Minute
}
