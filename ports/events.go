package ports

import "time"

// TopicWorkbook carries workbook load notifications
const TopicWorkbook = "workbook"

// Event types published on TopicWorkbook
const (
	EventWorkbookLoaded = "workbook.loaded"
	EventWorkbookFailed = "workbook.failed"
)

// WorkbookEvent is pushed to every open page so it can re-request its view
type WorkbookEvent struct {
	Topic      string                 `json:"topic"`
	EventType  string                 `json:"event_type"`
	Generation uint64                 `json:"generation"`
	Filename   string                 `json:"filename,omitempty"`
	Rows       int                    `json:"rows"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// EventPublisher broadcasts workbook notifications
type EventPublisher interface {
	Publish(event WorkbookEvent)
}
