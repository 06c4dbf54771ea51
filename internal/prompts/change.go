package prompts

import "github.com/existflow/promptpicker/internal/model"

// Change is one structural edit passed to Library.Mutate
type Change interface {
	Kind() string
	isChange()
}

// AddPrompt creates a prompt. FolderID files it straight into a folder.
type AddPrompt struct {
	Title    string
	Content  string
	Color    string
	FolderID string
}

// EditPrompt replaces a prompt's text. An empty Color keeps the current one.
type EditPrompt struct {
	ID      string
	Title   string
	Content string
	Color   string
}

// DeletePrompt removes a prompt once Confirm returns true. A nil Confirm
// counts as a refusal.
type DeletePrompt struct {
	ID      string
	Confirm func(model.Prompt) bool
}

// CreateFolder adds an empty, expanded folder
type CreateFolder struct {
	Name  string
	Color string
}

// ToggleFolder flips a folder's expanded flag
type ToggleFolder struct {
	ID string
}

// DeleteFolder removes a folder; its prompts become unfiled
type DeleteFolder struct {
	ID string
}

// AssignToFolder moves a prompt into a folder. An empty FolderID unfiles it.
type AssignToFolder struct {
	PromptID string
	FolderID string
}

// MergePrompts groups two prompts into a new folder named after both
type MergePrompts struct {
	FirstID  string
	SecondID string
}

// ImportLibrary replaces every prompt and folder
type ImportLibrary struct {
	Prompts []model.Prompt
	Folders []model.Folder
}

// SetSetting updates the settings record
type SetSetting struct {
	ToggleShortcut string
}

// SetLicense verifies and stores a license key
type SetLicense struct {
	Key   string
	Email string
}

// RemoveLicense deletes the stored license
type RemoveLicense struct{}

func (AddPrompt) Kind() string      { return "addPrompt" }
func (EditPrompt) Kind() string     { return "editPrompt" }
func (DeletePrompt) Kind() string   { return "deletePrompt" }
func (CreateFolder) Kind() string   { return "createFolder" }
func (ToggleFolder) Kind() string   { return "toggleFolder" }
func (DeleteFolder) Kind() string   { return "deleteFolder" }
func (AssignToFolder) Kind() string { return "assignToFolder" }
func (MergePrompts) Kind() string   { return "mergePrompts" }
func (ImportLibrary) Kind() string  { return "importLibrary" }
func (SetSetting) Kind() string     { return "setSetting" }
func (SetLicense) Kind() string     { return "setLicense" }
func (RemoveLicense) Kind() string  { return "removeLicense" }

func (AddPrompt) isChange()      {}
func (EditPrompt) isChange()     {}
func (DeletePrompt) isChange()   {}
func (CreateFolder) isChange()   {}
func (ToggleFolder) isChange()   {}
func (DeleteFolder) isChange()   {}
func (AssignToFolder) isChange() {}
func (MergePrompts) isChange()   {}
func (ImportLibrary) isChange()  {}
func (SetSetting) isChange()     {}
func (SetLicense) isChange()     {}
func (RemoveLicense) isChange()  {}
