package store

import "time"

// Sender identifies who authored a turn-log entry
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// DefaultChatTitle is the sentinel title a chat carries until its first bot response
const DefaultChatTitle = "New Chat"

// ChatMessage is one caller-visible entry of a session turn log
type ChatMessage struct {
	ID                 string   `json:"id"`
	Sender             Sender   `json:"sender"`
	UserID             string   `json:"user_id"`
	CourseName         string   `json:"course_name"`
	Text               string   `json:"text"`
	TimestampMs        int64    `json:"timestamp_ms"`
	RetrievedDocuments []string `json:"retrieved_documents,omitempty"`
}

// ChunkMetadata describes where a retrieved chunk came from
type ChunkMetadata struct {
	CourseName         string         `json:"course_name"`
	ItemTitle          string         `json:"item_title"`
	TopicOrWeekTitle   string         `json:"topic_or_week_title"`
	LearningObjectives []string       `json:"learning_objectives,omitempty"`
	Extra              map[string]any `json:"extra,omitempty"`
}

// RetrievedChunk is a ranked piece of course material returned by the retriever
type RetrievedChunk struct {
	Content  string        `json:"content"`
	Score    float32       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// CourseItem is one unit of course content (a week, topic or document)
type CourseItem struct {
	ID        string
	Title     string
	Published bool
}

// Course is the course document as seen by the tutoring core
type Course struct {
	ID    string
	Name  string
	Items []CourseItem
}

// PublishedItemTitles returns the titles of the items flagged published, in item order
func (c *Course) PublishedItemTitles() []string {
	if c == nil {
		return nil
	}
	titles := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Published {
			titles = append(titles, item.Title)
		}
	}
	return titles
}

// PersistedChat is a chat as stored in the document store
type PersistedChat struct {
	ID         string
	UserID     string
	CourseName string
	Title      string
	Messages   []ChatMessage
	CreatedAt  time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

// StruggleProfile holds the struggle topics on file for one (user, course)
type StruggleProfile struct {
	UserID        string
	CourseName    string
	StruggleWords []string
	UpdatedAt     time.Time
}

// Enrollment is a course roster entry
type Enrollment struct {
	UserID     string
	CourseName string
	Role       string
}
