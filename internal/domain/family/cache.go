package family

import "time"

// SessionCache holds editing sessions between requests.
type SessionCache interface {
	Get(id string) (*Session, bool)
	Set(id string, session *Session, ttl time.Duration)
	Delete(id string)
	Clear()
}

type noopSessionCache struct{}

func (noopSessionCache) Get(string) (*Session, bool) {
	return nil, false
}

func (noopSessionCache) Set(string, *Session, time.Duration) {}

func (noopSessionCache) Delete(string) {}

func (noopSessionCache) Clear() {}
