package backup

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/existflow/promptpicker/internal/model"
)

func sampleLibrary() Library {
	prompts := model.DefaultPrompts()
	prompts[0].FolderID = "folder-1"
	return Library{
		Prompts: prompts,
		Folders: []model.Folder{{
			ID: "folder-1", Name: "Debug", Color: "c", IsExpanded: true,
			Prompts: []model.Prompt{prompts[0]},
		}},
		Settings: model.Settings{ToggleShortcut: "cmd+shift+p"},
	}
}

func TestPlainBackup(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	data, err := Export(sampleLibrary(), "", now)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Debug Root Cause") {
		t.Error("plain backup should be readable")
	}

	info, err := Inspect(data)
	if err != nil || info.Encrypted || !info.CreatedAt.Equal(now) {
		t.Errorf("info = %+v, err = %v", info, err)
	}

	lib, err := Import(data, "ignored")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(*lib, sampleLibrary()) {
		t.Errorf("got %+v", lib)
	}
}

func TestEncryptedBackup(t *testing.T) {
	data, err := Export(sampleLibrary(), "correct horse", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Debug Root Cause") {
		t.Fatal("encrypted backup leaks content")
	}

	info, err := Inspect(data)
	if err != nil || !info.Encrypted || info.Fingerprint == "" {
		t.Errorf("info = %+v, err = %v", info, err)
	}

	if _, err := Import(data, ""); !errors.Is(err, ErrPassphraseRequired) {
		t.Errorf("expected ErrPassphraseRequired, got %v", err)
	}
	if _, err := Import(data, "wrong"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("expected ErrWrongPassphrase, got %v", err)
	}

	lib, err := Import(data, "correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(*lib, sampleLibrary()) {
		t.Errorf("got %+v", lib)
	}
}

func TestImportRejectsForeignFiles(t *testing.T) {
	for _, data := range []string{"", "{}", `{"kind":"other"}`, "not json"} {
		if _, err := Import([]byte(data), ""); !errors.Is(err, ErrNotBackup) {
			t.Errorf("Import(%q) = %v", data, err)
		}
	}
	if _, err := Import([]byte(`{"kind":"promptpicker-backup","version":9}`), ""); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestFingerprintStable(t *testing.T) {
	salt := []byte("0123456789abcdef")
	if Fingerprint("a", salt) != Fingerprint("a", salt) {
		t.Error("fingerprint is not deterministic")
	}
	if Fingerprint("a", salt) == Fingerprint("b", salt) {
		t.Error("different passphrases share a fingerprint")
	}
}
