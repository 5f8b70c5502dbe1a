package domain

// Operation is an action a principal attempts on a single task.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// CanAccess reports whether principal may perform op on task. Admins may do
// anything; everybody else only touches tasks assigned to them. The same rule
// covers read, write and delete.
func CanAccess(principal *Principal, task *Task, op Operation) bool {
	if principal == nil || task == nil {
		return false
	}
	switch op {
	case OpRead, OpWrite, OpDelete:
	default:
		return false
	}
	if principal.IsAdmin() {
		return true
	}
	return principal.ID != "" && task.AssignedTo.ID == principal.ID
}

// Authorize is CanAccess expressed as an error. The task must already be known
// to exist so that a denial is reported as forbidden rather than not found.
func Authorize(principal *Principal, task *Task, op Operation) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if !CanAccess(principal, task, op) {
		return ErrForbidden
	}
	return nil
}

// VisibilityScope returns the assignee every list query must be restricted
// to, or "" when the principal may see all tasks. principal must not be nil.
func VisibilityScope(principal *Principal) string {
	if principal.IsAdmin() {
		return ""
	}
	return principal.ID
}
