package realtime

// Streams a device can listen on.
const (
	StreamNotifications = "notifications"
	StreamComplaints    = "complaints"
)

// Events carried on the streams.
const (
	EventNotificationCreated = "notification.created"
	EventComplaintUpdated    = "complaint.updated"
	EventPong                = "pong"
)
