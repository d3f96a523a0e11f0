package domain

import "fmt"

// Datastore identifies the configuration store a session operates on.
type Datastore string

const (
	DatastoreStartup     Datastore = "startup"
	DatastoreRunning     Datastore = "running"
	DatastoreCandidate   Datastore = "candidate"
	DatastoreOperational Datastore = "operational"
)

// ParseDatastore converts a datastore name to a Datastore.
func ParseDatastore(name string) (Datastore, error) {
	switch ds := Datastore(name); ds {
	case DatastoreStartup, DatastoreRunning, DatastoreCandidate, DatastoreOperational:
		return ds, nil
	default:
		return "", fmt.Errorf("unknown datastore %q", name)
	}
}
