package prompts

import (
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/store"
)

// Keys of the prompts document
const (
	keyPrompts  = "prompts"
	keyFolders  = "folders"
	keyTrigger  = "_trigger"
	keyRevision = "_rev"
	keySettings = "settings"
)

// TriggerWindow is how recent a trigger timestamp must be to force a reload
const TriggerWindow = 5000 // ms

// document is the decoded prompts document
type document struct {
	Prompts []model.Prompt
	Folders []model.Folder
	Trigger *int64
	Rev     int64
	// seeded is set when the prompts key was absent and defaults were used
	seeded bool
}

func decodeDocument(h *store.Handle) (*document, error) {
	doc := &document{}

	found, err := h.Get(keyPrompts, &doc.Prompts)
	if err != nil {
		return nil, err
	}
	if !found {
		doc.Prompts = model.DefaultPrompts()
		doc.seeded = true
	}
	if _, err := h.Get(keyFolders, &doc.Folders); err != nil {
		return nil, err
	}
	if _, err := h.Get(keyTrigger, &doc.Trigger); err != nil {
		return nil, err
	}
	if _, err := h.Get(keyRevision, &doc.Rev); err != nil {
		return nil, err
	}

	if doc.Prompts == nil {
		doc.Prompts = []model.Prompt{}
	}
	if doc.Folders == nil {
		doc.Folders = []model.Folder{}
	}
	return doc, nil
}

func (d *document) encode(h *store.Handle) error {
	if err := h.Set(keyPrompts, d.Prompts); err != nil {
		return err
	}
	if err := h.Set(keyFolders, d.Folders); err != nil {
		return err
	}
	if err := h.Set(keyTrigger, d.Trigger); err != nil {
		return err
	}
	return h.Set(keyRevision, d.Rev)
}

func (d *document) promptIndex(id string) int {
	for i, p := range d.Prompts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (d *document) folderIndex(id string) int {
	for i, f := range d.Folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// normalize makes prompt.FolderID the single source of truth: duplicate
// prompt ids are dropped, prompts only present inside a folder are adopted,
// dangling folder references are cleared and every folder's Prompts list is
// rebuilt. It returns how many records had to be repaired.
func (d *document) normalize() int {
	repaired := 0

	folders := make(map[string]bool, len(d.Folders))
	for _, f := range d.Folders {
		folders[f.ID] = true
	}

	seen := make(map[string]bool, len(d.Prompts))
	list := make([]model.Prompt, 0, len(d.Prompts))
	for _, p := range d.Prompts {
		if seen[p.ID] {
			repaired++
			continue
		}
		seen[p.ID] = true
		if p.FolderID != "" && !folders[p.FolderID] {
			p.FolderID = ""
			repaired++
		}
		list = append(list, p)
	}

	// records that only survived in a folder's copy
	for _, f := range d.Folders {
		for _, p := range f.Prompts {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			p.FolderID = f.ID
			list = append(list, p)
			repaired++
		}
	}

	SortPrompts(list)
	d.Prompts = list

	for i := range d.Folders {
		f := &d.Folders[i]
		members := make([]model.Prompt, 0, len(f.Prompts))
		for _, p := range list {
			if p.FolderID == f.ID {
				members = append(members, p)
			}
		}
		if !samePromptIDs(f.Prompts, members) {
			repaired++
		}
		f.Prompts = members
	}

	return repaired
}

func samePromptIDs(a, b []model.Prompt) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[string]bool, len(a))
	for _, p := range a {
		ids[p.ID] = true
	}
	for _, p := range b {
		if !ids[p.ID] {
			return false
		}
	}
	return true
}
