package models

type NotificationStatus string

const (
	StatusSuccess NotificationStatus = "success"
	StatusError   NotificationStatus = "error"
)

type Notification struct {
	Status      NotificationStatus `json:"status"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Dismissible bool               `json:"dismissible"`
}
