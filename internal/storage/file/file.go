// Package file stores saves, parties, characters, and model preferences as
// YAML documents under a base directory:
//
//	{base}/saves/{label}_{unix-nanos}.yaml
//	{base}/parties/{name}.yaml
//	{base}/characters/{name}.yaml
//	{base}/preferences.yaml
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
	"github.com/cory-johannsen/dungeonmaster/internal/storage"
)

const (
	savesDir      = "saves"
	partiesDir    = "parties"
	charactersDir = "characters"
	prefsFile     = "preferences.yaml"
	ext           = ".yaml"
)

// Store is a directory-backed implementation of every adventure store.
//
// Store is safe for concurrent use within one process.
type Store struct {
	base   string
	logger *zap.Logger
	// prefsMu serialises read-modify-write of the preferences document.
	prefsMu sync.Mutex
}

var (
	_ adventure.SaveStore       = (*Store)(nil)
	_ adventure.PartyStore      = (*Store)(nil)
	_ adventure.CharacterStore  = (*Store)(nil)
	_ adventure.PreferenceStore = (*Store)(nil)
)

// New creates the directory layout under base.
//
// Precondition: base must be non-empty; logger must be non-nil.
func New(base string, logger *zap.Logger) (*Store, error) {
	for _, d := range []string{savesDir, partiesDir, charactersDir} {
		if err := os.MkdirAll(filepath.Join(base, d), 0o755); err != nil {
			return nil, &storage.Error{Op: "mkdir", Path: filepath.Join(base, d), Err: err}
		}
	}
	return &Store{base: base, logger: logger}, nil
}

// SaveGame writes doc to saves/{doc.ID}.yaml.
func (s *Store) SaveGame(_ context.Context, doc *adventure.SaveDocument) error {
	if doc == nil || doc.ID == "" {
		return errors.New("save document must have an id")
	}
	return s.writeYAML(filepath.Join(savesDir, doc.ID+ext), doc)
}

// LoadGame reads the save document id.
func (s *Store) LoadGame(_ context.Context, id string) (*adventure.SaveDocument, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, &storage.Error{Op: "read", Path: id, Err: storage.ErrNotFound}
	}
	var doc adventure.SaveDocument
	if err := s.readYAML(filepath.Join(savesDir, id+ext), &doc); err != nil {
		return nil, err
	}
	if doc.Party == nil {
		doc.Party = party.New()
	}
	return &doc, nil
}

// ListGames returns save summaries newest first. Labels and timestamps come
// from the file names, so payloads are never decoded. Names that do not
// parse as save ids are skipped.
func (s *Store) ListGames(_ context.Context) ([]adventure.SaveSummary, error) {
	names, err := s.list(savesDir)
	if err != nil {
		return nil, err
	}
	out := make([]adventure.SaveSummary, 0, len(names))
	for _, id := range names {
		label, created, ok := adventure.ParseSaveID(id)
		if !ok {
			s.logger.Debug("skipping unrecognised save file", zap.String("name", id))
			continue
		}
		out = append(out, adventure.SaveSummary{ID: id, Label: label, CreatedAt: created})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SaveParty writes p to parties/{name}.yaml.
func (s *Store) SaveParty(_ context.Context, name string, p *party.Party) error {
	return s.writeYAML(filepath.Join(partiesDir, name+ext), p)
}

// LoadParty reads the party name.
func (s *Store) LoadParty(_ context.Context, name string) (*party.Party, error) {
	p := party.New()
	if err := s.readYAML(filepath.Join(partiesDir, name+ext), p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListParties returns stored party names in lexical order.
func (s *Store) ListParties(_ context.Context) ([]string, error) {
	return s.list(partiesDir)
}

// SaveCharacter writes sheet to characters/ under its normalised file name.
func (s *Store) SaveCharacter(_ context.Context, sheet character.Sheet) error {
	return s.writeYAML(filepath.Join(charactersDir, character.Filename(sheet.Name)), sheet)
}

// LoadCharacter reads the character name.
func (s *Store) LoadCharacter(_ context.Context, name string) (character.Sheet, error) {
	var sheet character.Sheet
	if err := s.readYAML(filepath.Join(charactersDir, character.Filename(name)), &sheet); err != nil {
		return character.Sheet{}, err
	}
	return sheet, nil
}

// ListCharacters returns the names recorded inside each character document.
// Unreadable documents are logged and skipped.
func (s *Store) ListCharacters(_ context.Context) ([]string, error) {
	files, err := s.list(charactersDir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		var sheet character.Sheet
		if err := s.readYAML(filepath.Join(charactersDir, f+ext), &sheet); err != nil {
			s.logger.Warn("skipping unreadable character", zap.String("file", f), zap.Error(err))
			continue
		}
		if sheet.Name != "" {
			out = append(out, sheet.Name)
		}
	}
	return out, nil
}

type preferences struct {
	DMModel string            `yaml:"dm_model,omitempty"`
	Slots   map[string]string `yaml:"slot_models,omitempty"`
	NPCs    map[string]string `yaml:"npc_models,omitempty"`
}

func (s *Store) loadPrefs() (preferences, error) {
	var p preferences
	err := s.readYAML(prefsFile, &p)
	if errors.Is(err, storage.ErrNotFound) {
		return preferences{}, nil
	}
	return p, err
}

func (s *Store) updatePrefs(fn func(*preferences)) error {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()
	p, err := s.loadPrefs()
	if err != nil {
		return err
	}
	if p.Slots == nil {
		p.Slots = map[string]string{}
	}
	if p.NPCs == nil {
		p.NPCs = map[string]string{}
	}
	fn(&p)
	return s.writeYAML(prefsFile, p)
}

// DMModel returns the stored narrator model, or "".
func (s *Store) DMModel(_ context.Context) (string, error) {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()
	p, err := s.loadPrefs()
	return p.DMModel, err
}

// SetDMModel records the narrator model.
func (s *Store) SetDMModel(_ context.Context, model string) error {
	return s.updatePrefs(func(p *preferences) { p.DMModel = model })
}

// SlotModel returns the model for party slot, or "".
func (s *Store) SlotModel(_ context.Context, slot int) (string, error) {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()
	p, err := s.loadPrefs()
	return p.Slots[strconv.Itoa(slot)], err
}

// SetSlotModel records the model for party slot.
func (s *Store) SetSlotModel(_ context.Context, slot int, model string) error {
	return s.updatePrefs(func(p *preferences) { p.Slots[strconv.Itoa(slot)] = model })
}

// NPCModel returns the model recorded for the named NPC, or "".
func (s *Store) NPCModel(_ context.Context, name string) (string, error) {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()
	p, err := s.loadPrefs()
	return p.NPCs[name], err
}

// SetNPCModel records the model for the named NPC.
func (s *Store) SetNPCModel(_ context.Context, name, model string) error {
	return s.updatePrefs(func(p *preferences) { p.NPCs[name] = model })
}

// list returns the base names of the YAML documents in dir, sorted. A
// missing directory lists as empty.
func (s *Store) list(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.base, dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &storage.Error{Op: "list", Path: dir, Err: err}
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) readYAML(rel string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.base, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return &storage.Error{Op: "read", Path: rel, Err: storage.ErrNotFound}
	}
	if err != nil {
		return &storage.Error{Op: "read", Path: rel, Err: err}
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return &storage.Error{Op: "decode", Path: rel, Err: err}
	}
	return nil
}

// writeYAML replaces rel atomically: a partially written document is never
// visible under its final name.
func (s *Store) writeYAML(rel string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return &storage.Error{Op: "encode", Path: rel, Err: err}
	}
	path := filepath.Join(s.base, rel)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return &storage.Error{Op: "write", Path: rel, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &storage.Error{Op: "write", Path: rel, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &storage.Error{Op: "write", Path: rel, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &storage.Error{Op: "rename", Path: rel, Err: fmt.Errorf("%s: %w", tmp.Name(), err)}
	}
	return nil
}
