package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/promptpicker/internal/license"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/store"
)

// mutation carries one Mutate call through its handlers
type mutation struct {
	lib  *Library
	ctx  context.Context
	now  time.Time
	tier model.Tier
	ack  *Ack
}

func (m *mutation) deny(reason string) {
	m.ack.Denied = true
	m.ack.Reason = reason
}

func (m *mutation) applyToDocument(change Change) error {
	h, doc, _, err := m.lib.loadDocument(m.ctx)
	if err != nil {
		return err
	}
	doc.normalize()
	base := doc.Rev

	switch c := change.(type) {
	case AddPrompt:
		err = m.addPrompt(doc, c)
	case EditPrompt:
		err = m.editPrompt(doc, c)
	case DeletePrompt:
		err = m.deletePrompt(doc, c)
	case CreateFolder:
		err = m.createFolder(doc, c)
	case ToggleFolder:
		err = m.toggleFolder(doc, c)
	case DeleteFolder:
		err = m.deleteFolder(doc, c)
	case AssignToFolder:
		err = m.assignToFolder(doc, c)
	case MergePrompts:
		err = m.mergePrompts(doc, c)
	case ImportLibrary:
		err = m.importLibrary(doc, c)
	default:
		err = fmt.Errorf("unsupported change %T", change)
	}
	if err != nil || m.ack.Denied {
		return err
	}
	return m.commit(h, doc, base)
}

// commit repairs membership, stamps the trigger and revision and saves. The
// revision is read again just before saving so that an interleaved writer
// is at least detected.
func (m *mutation) commit(h *store.Handle, doc *document, base int64) error {
	doc.normalize()

	next := base + 1
	cur, err := m.lib.Peek(m.ctx)
	switch {
	case err != nil:
		m.lib.log.Debug("Could not re-read revision before save", logger.F("error", err))
	case cur.Rev != base:
		m.ack.Conflict = true
		next = max(base, cur.Rev) + 1
		m.lib.log.Warn("Another window saved the library concurrently, its change will be overwritten",
			logger.F("read_rev", base), logger.F("current_rev", cur.Rev))
	}

	trigger := m.now.UnixMilli()
	doc.Trigger = &trigger
	doc.Rev = next

	if err := doc.encode(h); err != nil {
		return err
	}
	if err := h.Save(m.ctx); err != nil {
		return err
	}
	m.lib.stamped.Store(trigger)
	m.ack.Rev = next
	return nil
}

func (m *mutation) stampTrigger() error {
	h, doc, _, err := m.lib.loadDocument(m.ctx)
	if err != nil {
		return err
	}
	return m.commit(h, doc, doc.Rev)
}

func validateText(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	switch {
	case title == "":
		return "", "", &ValidationError{Field: "title", Message: "Please enter both title and content"}
	case content == "":
		return "", "", &ValidationError{Field: "content", Message: "Please enter both title and content"}
	}
	return title, content, nil
}

func (m *mutation) addPrompt(doc *document, c AddPrompt) error {
	title, content, err := validateText(c.Title, c.Content)
	if err != nil {
		return err
	}

	if d := license.CanAddPrompt(m.tier, len(doc.Prompts)); !d.Allowed {
		m.deny(d.Reason)
		return nil
	}
	if c.FolderID != "" {
		if d := license.Allow(m.tier, license.FeatureFolders); !d.Allowed {
			m.deny(d.Reason)
			return nil
		}
		if doc.folderIndex(c.FolderID) < 0 {
			return ErrFolderNotFound
		}
	}

	color := strings.TrimSpace(c.Color)
	if color == "" {
		color = model.DefaultColor
	}

	p := model.Prompt{
		ID:       NewPromptID(doc.Prompts, m.now),
		Title:    title,
		Content:  content,
		Color:    color,
		FolderID: c.FolderID,
	}
	doc.Prompts = append(doc.Prompts, p)
	m.ack.PromptID = p.ID
	m.ack.FolderID = p.FolderID
	return nil
}

func (m *mutation) editPrompt(doc *document, c EditPrompt) error {
	title, content, err := validateText(c.Title, c.Content)
	if err != nil {
		return err
	}
	i := doc.promptIndex(c.ID)
	if i < 0 {
		return ErrPromptNotFound
	}

	p := &doc.Prompts[i]
	p.Title = title
	p.Content = content
	if color := strings.TrimSpace(c.Color); color != "" {
		p.Color = color
	}
	m.ack.PromptID = p.ID
	m.ack.FolderID = p.FolderID
	return nil
}

func (m *mutation) deletePrompt(doc *document, c DeletePrompt) error {
	i := doc.promptIndex(c.ID)
	if i < 0 {
		return ErrPromptNotFound
	}
	if c.Confirm == nil || !c.Confirm(doc.Prompts[i]) {
		return ErrNotConfirmed
	}

	m.ack.PromptID = c.ID
	m.ack.FolderID = doc.Prompts[i].FolderID
	doc.Prompts = append(doc.Prompts[:i], doc.Prompts[i+1:]...)
	return nil
}

func (m *mutation) createFolder(doc *document, c CreateFolder) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "Please enter a folder name"}
	}
	if d := license.Allow(m.tier, license.FeatureFolders); !d.Allowed {
		m.deny(d.Reason)
		return nil
	}

	color := strings.TrimSpace(c.Color)
	if color == "" {
		color = model.DefaultColor
	}
	f := model.Folder{
		ID:         model.NewFolderID(),
		Name:       name,
		Color:      color,
		IsExpanded: true,
		Prompts:    []model.Prompt{},
	}
	doc.Folders = append(doc.Folders, f)
	m.ack.FolderID = f.ID
	return nil
}

func (m *mutation) toggleFolder(doc *document, c ToggleFolder) error {
	i := doc.folderIndex(c.ID)
	if i < 0 {
		return ErrFolderNotFound
	}
	doc.Folders[i].IsExpanded = !doc.Folders[i].IsExpanded
	m.ack.FolderID = c.ID
	return nil
}

func (m *mutation) deleteFolder(doc *document, c DeleteFolder) error {
	i := doc.folderIndex(c.ID)
	if i < 0 {
		return ErrFolderNotFound
	}
	for j := range doc.Prompts {
		if doc.Prompts[j].FolderID == c.ID {
			doc.Prompts[j].FolderID = ""
		}
	}
	doc.Folders = append(doc.Folders[:i], doc.Folders[i+1:]...)
	m.ack.FolderID = c.ID
	return nil
}

func (m *mutation) assignToFolder(doc *document, c AssignToFolder) error {
	i := doc.promptIndex(c.PromptID)
	if i < 0 {
		return ErrPromptNotFound
	}
	if c.FolderID != "" {
		if d := license.Allow(m.tier, license.FeatureFolders); !d.Allowed {
			m.deny(d.Reason)
			return nil
		}
		if doc.folderIndex(c.FolderID) < 0 {
			return ErrFolderNotFound
		}
	}
	doc.Prompts[i].FolderID = c.FolderID
	m.ack.PromptID = c.PromptID
	m.ack.FolderID = c.FolderID
	return nil
}

func (m *mutation) mergePrompts(doc *document, c MergePrompts) error {
	if c.FirstID == c.SecondID {
		return &ValidationError{Field: "prompts", Message: "Cannot group a prompt with itself"}
	}
	a, b := doc.promptIndex(c.FirstID), doc.promptIndex(c.SecondID)
	if a < 0 || b < 0 {
		return ErrPromptNotFound
	}
	if d := license.Allow(m.tier, license.FeatureDragToGroup); !d.Allowed {
		m.deny(d.Reason)
		return nil
	}

	f := model.Folder{
		ID:         model.NewFolderID(),
		Name:       model.MergedFolderName(doc.Prompts[a].Title, doc.Prompts[b].Title),
		Color:      doc.Prompts[a].Color,
		IsExpanded: true,
	}
	doc.Folders = append(doc.Folders, f)
	doc.Prompts[a].FolderID = f.ID
	doc.Prompts[b].FolderID = f.ID
	m.ack.FolderID = f.ID
	return nil
}

func (m *mutation) importLibrary(doc *document, c ImportLibrary) error {
	ids := make(map[string]bool, len(c.Prompts))
	for _, p := range c.Prompts {
		if p.ID == "" {
			return &ValidationError{Field: "prompts", Message: "Imported prompt has no id"}
		}
		if ids[p.ID] {
			return &ValidationError{Field: "prompts", Message: fmt.Sprintf("Duplicate prompt id %q", p.ID)}
		}
		ids[p.ID] = true
		if _, _, err := validateText(p.Title, p.Content); err != nil {
			return err
		}
	}
	folderIDs := make(map[string]bool, len(c.Folders))
	for _, f := range c.Folders {
		if f.ID == "" || folderIDs[f.ID] {
			return &ValidationError{Field: "folders", Message: "Imported folders need unique ids"}
		}
		folderIDs[f.ID] = true
	}

	if m.tier != model.TierPro {
		if len(c.Prompts) > license.MaxTotalPrompts {
			m.deny(license.CanAddPrompt(m.tier, len(c.Prompts)).Reason)
			return nil
		}
		if len(c.Folders) > 0 {
			m.deny(license.Allow(m.tier, license.FeatureFolders).Reason)
			return nil
		}
	}

	doc.Prompts = append([]model.Prompt(nil), c.Prompts...)
	doc.Folders = append([]model.Folder(nil), c.Folders...)
	return nil
}

func (m *mutation) setSetting(c SetSetting) error {
	shortcut, err := model.NormalizeShortcut(c.ToggleShortcut)
	if err != nil {
		return &ValidationError{Field: "toggleShortcut", Message: err.Error(), Err: err}
	}

	_, h, err := m.lib.loadSettings(m.ctx)
	if err != nil {
		return err
	}
	if err := h.Set(keySettings, model.Settings{ToggleShortcut: shortcut}); err != nil {
		return err
	}
	return h.Save(m.ctx)
}

func (m *mutation) setLicense(c SetLicense) error {
	lic, err := m.lib.licenses.SetKey(m.ctx, c.Key, c.Email)
	if errors.Is(err, license.ErrInvalidKeyFormat) {
		return &ValidationError{Field: "key", Message: err.Error(), Err: err}
	}
	if err != nil {
		return err
	}
	m.ack.License = &lic
	return nil
}

func (m *mutation) removeLicense() error {
	return m.lib.licenses.Remove(m.ctx)
}
