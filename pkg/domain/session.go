package domain

import "time"

// SessionState is the persisted part of a client session.
type SessionState struct {
	ID string `json:"id"`
	// Datastore is the active datastore selector of the session.
	Datastore Datastore `json:"datastore"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// NewSessionState creates the state of a fresh session working on ds.
func NewSessionState(id string, ds Datastore) *SessionState {
	now := time.Now()
	return &SessionState{
		ID:        id,
		Datastore: ds,
		Created:   now,
		Updated:   now,
	}
}
