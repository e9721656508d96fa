package services

// Service errors
var (
	ErrNoSessionsKept = &ServiceError{Message: "bulk delete requires at least one session to keep"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}
