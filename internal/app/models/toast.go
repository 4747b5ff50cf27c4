package models

type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

// Toast is a transient notification delivered to the browser through the HX-Trigger header.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}
