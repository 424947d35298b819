// Package lextypes defines chat contracts for lexshell.
// This file contains the payloads sent to and received from the chat endpoint.
package lextypes

// Role identifies the author of a chat message.
type Role string

// Chat roles understood by the backend.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatType scopes a conversation on the backend.
type ChatType string

// Chat types accepted in ChatContext.
const (
	ChatTypePastQuestion   ChatType = "past_question"
	ChatTypeCourseSpecific ChatType = "course_specific"
	ChatTypeGeneral        ChatType = "general"
)

// RequestMessage is one prior transcript entry projected for the backend.
type RequestMessage struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// ChatContext carries conversation continuity information.
type ChatContext struct {
	ChatType       ChatType `json:"chat_type,omitempty"`
	CourseID       string   `json:"course_id,omitempty"`
	PastQuestionID string   `json:"past_question_id,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// ChatConfig toggles backend features for a single request.
type ChatConfig struct {
	Model                string   `json:"model,omitempty"`
	Temperature          *float64 `json:"temperature,omitempty"`
	EnableTools          *bool    `json:"enable_tools,omitempty"`
	EnableFollowUp       *bool    `json:"enable_follow_up,omitempty"`
	EnableSmartActions   *bool    `json:"enable_smart_actions,omitempty"`
	EnableFileProcessing *bool    `json:"enable_file_processing,omitempty"`
	MaxFileSizeMB        *int     `json:"max_file_size_mb,omitempty"`
}

// AIRequest is the body of POST /open/chat/message/.
type AIRequest struct {
	Message  string           `json:"message"`
	Messages []RequestMessage `json:"messages"`
	FileURLs []string         `json:"file_urls,omitempty"`
	Context  *ChatContext     `json:"context,omitempty"`
	Config   *ChatConfig      `json:"config,omitempty"`
}

// FollowUpQuestion is a suggested next question attached to a reply.
type FollowUpQuestion struct {
	Text string `json:"text" yaml:"text"`
	Type string `json:"type" yaml:"type"` // research, examples, clarification, analysis
}

// SmartAction is a suggested action attached to a reply.
type SmartAction struct {
	Type        string `json:"type" yaml:"type"` // search, study, practice, bookmark, export, analyze
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Action      string `json:"action" yaml:"action"`
	Icon        string `json:"icon" yaml:"icon"`
}

// AIResponse is the data payload returned by the chat endpoint.
// It is read-only on the client.
type AIResponse struct {
	Message           string             `json:"message" yaml:"message"`
	ConversationID    *string            `json:"conversation_id" yaml:"conversation_id,omitempty"`
	Timestamp         string             `json:"timestamp" yaml:"timestamp"`
	ModelUsed         string             `json:"model_used" yaml:"model_used"`
	ContextPreserved  bool               `json:"context_preserved" yaml:"context_preserved"`
	ToolsUsed         bool               `json:"tools_used" yaml:"tools_used"`
	FunctionsCalled   []string           `json:"functions_called" yaml:"functions_called,omitempty"`
	TotalFunctions    int                `json:"total_functions" yaml:"total_functions"`
	FilesProcessed    int                `json:"files_processed" yaml:"files_processed"`
	UserAuthenticated bool               `json:"user_authenticated" yaml:"user_authenticated"`
	UserID            *string            `json:"user_id" yaml:"user_id,omitempty"`
	FollowUpQuestions []FollowUpQuestion `json:"follow_up_questions" yaml:"follow_up_questions,omitempty"`
	SmartActions      []SmartAction      `json:"smart_actions" yaml:"smart_actions,omitempty"`
}

// ConversationIDValue returns the conversation id or "" when the backend sent null.
func (r *AIResponse) ConversationIDValue() string {
	if r == nil || r.ConversationID == nil {
		return ""
	}
	return *r.ConversationID
}
