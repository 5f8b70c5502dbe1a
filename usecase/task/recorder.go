package task

import "github.com/fastygo/taskdesk/domain"

// Operation names reported to a Recorder.
const (
	OpList           = "list"
	OpListByPriority = "list_by_priority"
	OpGet            = "get"
	OpCreate         = "create"
	OpUpdate         = "update"
	OpUpdateStatus   = "update_status"
	OpUpdatePriority = "update_priority"
	OpDelete         = "delete"
)

// Recorder receives one call per finished task operation.
type Recorder interface {
	TaskOperation(operation, outcome string)
}

// Outcome classifies the result of an operation for reporting.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return "unauthenticated"
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return "denied"
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return "not_found"
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return "invalid"
	default:
		return "error"
	}
}

func (uc *UseCase) record(operation string, err error) {
	if uc.recorder != nil {
		uc.recorder.TaskOperation(operation, Outcome(err))
	}
}
