package bubbletea

// WrapText exports the plain-text wrapper for testing.
func WrapText(s string, width int) string {
	return newWrapCache().wrapText(s, width)
}
