package events

import "time"

const (
	TypeSessionEvicted        = "SESSION_EVICTED"
	TypeSessionDeleted        = "SESSION_DELETED"
	TypeStruggleTopicsUpdated = "STRUGGLE_TOPICS_UPDATED"
	TypeChatTitleSet          = "CHAT_TITLE_SET"
)

func sessionEvent(eventType, chatID, userID, courseName string) BaseEvent {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"chat_id":     chatID,
			"user_id":     userID,
			"course_name": courseName,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewSessionEvicted(chatID, userID, courseName string) BaseEvent {
	return sessionEvent(TypeSessionEvicted, chatID, userID, courseName)
}

func NewSessionDeleted(chatID, userID, courseName string) BaseEvent {
	return sessionEvent(TypeSessionDeleted, chatID, userID, courseName)
}

func NewChatTitleSet(chatID, userID, courseName, title string) BaseEvent {
	e := sessionEvent(TypeChatTitleSet, chatID, userID, courseName)
	e.Data["title"] = title
	return e
}

// NewStruggleTopicsUpdated carries the merged list and the topics added by this analysis
func NewStruggleTopicsUpdated(userID, courseName string, added, merged []string) BaseEvent {
	return BaseEvent{
		Type: TypeStruggleTopicsUpdated,
		Data: map[string]interface{}{
			"user_id":     userID,
			"course_name": courseName,
			"added":       added,
			"topics":      merged,
		},
		OccurredAt: time.Now().UTC(),
	}
}
