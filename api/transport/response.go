package transport

import (
	"encoding/json"

	"github.com/fastygo/taskdesk/domain"
	taskUC "github.com/fastygo/taskdesk/usecase/task"
)

// Message is the envelope for errors and payload-less confirmations.
type Message struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type TaskList struct {
	Success    bool              `json:"success"`
	Tasks      []domain.Task     `json:"tasks"`
	Pagination taskUC.Pagination `json:"pagination"`
}

type PriorityList struct {
	Success bool          `json:"success"`
	Tasks   []domain.Task `json:"tasks"`
}

type TaskItem struct {
	Success bool         `json:"success"`
	Task    *domain.Task `json:"task"`
}

type UserItem struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

type UserList struct {
	Success bool          `json:"success"`
	Users   []domain.User `json:"users"`
}

// NewMessage returns a successful confirmation envelope.
func NewMessage(message string) Message {
	return Message{Success: true, Message: message}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, message string, data interface{}) Message {
	return Message{
		Success: false,
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// Marshal renders any envelope, falling back to a bare failure on encoder errors.
func Marshal(payload interface{}) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		return []byte(`{"success":false,"message":"internal server error"}`)
	}
	return body
}
