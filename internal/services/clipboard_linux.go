//go:build linux

package services

// clipboardAvailable is false on Linux, where the clipboard library needs X11.
const clipboardAvailable = false

func initClipboard() error {
	return ErrClipboardUnavailable
}

func writeToClipboard(_ string) error {
	return ErrClipboardUnavailable
}
