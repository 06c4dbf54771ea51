package model

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// FolderNameLimit caps names generated from two merged prompt titles
const FolderNameLimit = 24

// Folder groups prompts in the bar. Prompts is a denormalized copy of the
// prompts whose FolderID points here.
type Folder struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Color      string   `json:"color"`
	IsExpanded bool     `json:"isExpanded"`
	Prompts    []Prompt `json:"prompts"`
}

// NewFolderID returns a time-ordered folder id
func NewFolderID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does
		return "folder-" + uuid.NewString()
	}
	return "folder-" + id.String()
}

// MergedFolderName builds a folder name from two prompt titles
func MergedFolderName(a, b string) string {
	name := strings.TrimSpace(a) + " & " + strings.TrimSpace(b)
	if utf8.RuneCountInString(name) <= FolderNameLimit {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:FolderNameLimit-1])) + "…"
}

// Contains reports whether the folder lists a prompt with id
func (f Folder) Contains(id string) bool {
	for _, p := range f.Prompts {
		if p.ID == id {
			return true
		}
	}
	return false
}
