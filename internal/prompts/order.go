package prompts

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/promptpicker/internal/model"
)

// MaxSlots is the number of prompts the bar shows and hotkeys address
const MaxSlots = 9

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// lessNumeric compares two digit strings by value without parsing, so ids of
// any length order correctly
func lessNumeric(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// lessID orders numeric ids first by value, then everything else by string
func lessID(a, b string) bool {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		return lessNumeric(a, b)
	case an:
		return true
	case bn:
		return false
	default:
		return a < b
	}
}

// SortPrompts orders prompts in place: numeric ids ascending by value, then
// other ids lexicographically. Timestamp ids are numeric and larger than any
// seed id, so seeds come first and custom prompts follow in creation order.
func SortPrompts(list []model.Prompt) {
	sort.SliceStable(list, func(i, j int) bool {
		return lessID(list[i].ID, list[j].ID)
	})
}

// Compose builds the bar: unfiled prompts, then the prompts of each expanded
// folder in folder order, cut to MaxSlots.
func Compose(list []model.Prompt, folders []model.Folder) []model.Prompt {
	out := make([]model.Prompt, 0, MaxSlots)
	for _, p := range list {
		if p.FolderID == "" {
			out = append(out, p)
		}
	}
	for _, f := range folders {
		if !f.IsExpanded {
			continue
		}
		out = append(out, f.Prompts...)
	}
	if len(out) > MaxSlots {
		out = out[:MaxSlots]
	}
	return out
}

// NewPromptID returns a millisecond timestamp id not present in existing,
// bumped forward until unique
func NewPromptID(existing []model.Prompt, now time.Time) string {
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.ID] = true
	}
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if !taken[id] {
			return id
		}
		ms++
	}
}
