package playback

type NotificationType string

const (
	EventLoaded    NotificationType = "loaded"
	EventStarted   NotificationType = "started"
	EventPaused    NotificationType = "paused"
	EventResumed   NotificationType = "resumed"
	EventSeeked    NotificationType = "seeked"
	EventCompleted NotificationType = "completed"
	EventStopped   NotificationType = "stopped"
	EventError     NotificationType = "error"
)

type Notification struct {
	Event   NotificationType
	TrackID string
	Err     error
}
