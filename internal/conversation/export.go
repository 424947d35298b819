package conversation

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is a transcript export encoding.
type Format string

// Supported export formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the export format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Transcript is the exported form of a conversation.
type Transcript struct {
	ConversationID string    `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	ExportedAt     time.Time `json:"exported_at" yaml:"exported_at"`
	Messages       []Message `json:"messages" yaml:"messages"`
}

// Transcript captures the current conversation for export.
func (c *Conversation) Transcript() Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Transcript{
		ConversationID: c.session.ConversationID,
		ExportedAt:     c.gen.Now(),
		Messages:       append([]Message{}, c.messages...),
	}
}

// Export writes the transcript to w in the given format.
func (c *Conversation) Export(w io.Writer, format Format) error {
	t := c.Transcript()
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported export format %q", format)
}
