package conversation

import "lexshell/pkg/lextypes"

// BuildRequest assembles the outgoing chat request.
//
// prior is the transcript before this submission; entries still awaiting a
// reply are left out. Context is only attached once the backend has issued a
// conversation id.
func BuildRequest(text string, prior []Message, session Session) lextypes.AIRequest {
	history := make([]lextypes.RequestMessage, 0, len(prior))
	for _, m := range prior {
		if m.IsLoading() {
			continue
		}
		history = append(history, lextypes.RequestMessage{Role: m.Role, Content: m.Content})
	}

	req := lextypes.AIRequest{
		Message:  text,
		Messages: history,
		Config:   DefaultConfig(),
	}
	if !session.IsZero() {
		req.Context = &lextypes.ChatContext{
			ChatType:       lextypes.ChatTypeGeneral,
			ConversationID: session.ConversationID,
		}
	}
	return req
}

// DefaultConfig enables every backend feature at a fixed temperature.
func DefaultConfig() *lextypes.ChatConfig {
	enabled := true
	temperature := DefaultTemperature
	return &lextypes.ChatConfig{
		Temperature:          &temperature,
		EnableTools:          &enabled,
		EnableFollowUp:       &enabled,
		EnableSmartActions:   &enabled,
		EnableFileProcessing: &enabled,
	}
}
