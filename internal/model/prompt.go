package model

import "unicode/utf8"

// DisplayLimit is how much of a prompt's content the bar shows
const DisplayLimit = 1000

// DefaultColor is used when a new prompt does not pick one
const DefaultColor = "from-blue-500 to-cyan-500"

// Prompt is a reusable block of text injected into other applications
type Prompt struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Color    string `json:"color"`
	FolderID string `json:"folderId,omitempty"`
}

// Preview returns the content cut to DisplayLimit runes. The stored content
// is never truncated.
func (p Prompt) Preview() string {
	if utf8.RuneCountInString(p.Content) <= DisplayLimit {
		return p.Content
	}
	runes := []rune(p.Content)
	return string(runes[:DisplayLimit]) + "…"
}

// IsDefault reports whether the prompt is one of the seeded ones
func (p Prompt) IsDefault() bool {
	for _, d := range DefaultPrompts() {
		if d.ID == p.ID {
			return true
		}
	}
	return false
}

// DefaultPrompts returns the seed prompts written to an empty store
func DefaultPrompts() []Prompt {
	return []Prompt{
		{
			ID:      "1",
			Title:   "Debug Root Cause",
			Content: "Come up with 5-7 most likely root causes of this bug, and attempt the 1-2 most likely fixes with proper logging. Don't hold back, give it your all.",
			Color:   "from-purple-500 to-pink-500",
		},
		{
			ID:      "2",
			Title:   "Explain Code",
			Content: "Explain this code in detail, including its purpose, how it works, potential edge cases, and any improvements that could be made.",
			Color:   "from-blue-500 to-cyan-500",
		},
		{
			ID:      "3",
			Title:   "Refactor",
			Content: "Refactor this code to be more readable, maintainable, and performant. Follow best practices and explain your changes.",
			Color:   "from-green-500 to-emerald-500",
		},
		{
			ID:      "4",
			Title:   "Write Tests",
			Content: "Write comprehensive unit tests for this code, covering edge cases and error scenarios. Use appropriate testing patterns.",
			Color:   "from-orange-500 to-red-500",
		},
		{
			ID:      "5",
			Title:   "Optimize Performance",
			Content: "Analyze this code for performance bottlenecks and suggest specific optimizations with examples.",
			Color:   "from-indigo-500 to-purple-500",
		},
		{
			ID:      "6",
			Title:   "Add Error Handling",
			Content: "Add comprehensive error handling to this code with proper logging and user-friendly error messages.",
			Color:   "from-teal-500 to-green-500",
		},
	}
}
