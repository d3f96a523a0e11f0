package domain

// Status is the result code a backend attaches to a call.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidArgument
	StatusNoMemory
	StatusNotFound
	StatusInternal
	StatusUnsupported
	StatusUnknownModel
	StatusValidationFailed
	StatusOperationFailed
	StatusUnauthorized
	StatusLocked
	StatusTimeout
)

var statusNames = map[Status]string{
	StatusOK:               "ok",
	StatusInvalidArgument:  "invalid argument",
	StatusNoMemory:         "out of memory",
	StatusNotFound:         "item not found",
	StatusInternal:         "internal error",
	StatusUnsupported:      "operation not supported",
	StatusUnknownModel:     "unknown model",
	StatusValidationFailed: "validation failed",
	StatusOperationFailed:  "operation failed",
	StatusUnauthorized:     "operation not authorized",
	StatusLocked:           "requested resource is already locked",
	StatusTimeout:          "timeout expired",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown error"
}

// ParseStatus converts a status name back to its Status.
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}
