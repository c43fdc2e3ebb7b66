package interpret

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the panel
// automatically matches any color scheme.
type Theme struct {
	Title   int // Panel title
	Loading int // Loading and streaming indicator
	Error   int // Error messages
	Success int // Completed indicator
	Muted   int // Status bar, hints
	CodeBg  int // Code block background
	Accent  int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Title:   4,
		Loading: 3,
		Error:   1,
		Success: 2,
		Muted:   8,
		CodeBg:  0,
		Accent:  5,
	}
}
