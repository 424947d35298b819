package services

import (
	"errors"
	"strings"

	"lexshell/internal/logger"
)

// ErrClipboardUnavailable is returned when the platform has no usable clipboard.
var ErrClipboardUnavailable = errors.New("clipboard not available on this platform")

// ClipboardService copies transcript entries to the system clipboard.
type ClipboardService struct {
	available bool
	write     func(text string) error
}

// NewClipboardService creates a ClipboardService backed by the system clipboard.
func NewClipboardService() *ClipboardService {
	return &ClipboardService{write: writeToClipboard}
}

// Name returns the service name "clipboard" for registration.
func (c *ClipboardService) Name() string {
	return "clipboard"
}

// Initialize probes the system clipboard. An unavailable clipboard is not an error;
// Copy reports it instead.
func (c *ClipboardService) Initialize() error {
	if !clipboardAvailable {
		logger.Debug("Clipboard support not compiled in for this platform")
		return nil
	}
	if err := initClipboard(); err != nil {
		logger.Debug("Clipboard unavailable", "error", err)
		return nil
	}
	c.available = true
	return nil
}

// Available reports whether Copy can succeed.
func (c *ClipboardService) Available() bool {
	return c.available
}

// Copy writes text to the clipboard.
func (c *ClipboardService) Copy(text string) error {
	if !c.available {
		return ErrClipboardUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("nothing to copy")
	}
	return c.write(text)
}
