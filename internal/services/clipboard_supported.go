//go:build !linux

package services

import "golang.design/x/clipboard"

// clipboardAvailable indicates clipboard support on this platform.
const clipboardAvailable = true

func initClipboard() error {
	return clipboard.Init()
}

func writeToClipboard(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
