package pubsub

// Topic names used across the gauntlet service.
const (
	TopicWellnessUpdates = "wellness.updates"
	TopicNotifications   = "wellness.notifications"
	TopicSocial          = "wellness.social"
	TopicSession         = "wellness.session"
)
