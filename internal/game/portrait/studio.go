package portrait

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
)

// ImageGenerator renders prompt to an image file at path and returns the
// path actually written.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, path string) (string, error)
}

// Studio combines a Prompter with an ImageGenerator.
type Studio struct {
	Prompter  *Prompter
	Generator ImageGenerator
	Logger    *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// PortraitFilename returns "{name}_{race}_{class}_portrait.png", lowercased
// with spaces in the name replaced by underscores.
func PortraitFilename(s character.Sheet) string {
	name := strings.ReplaceAll(strings.ToLower(s.Name), " ", "_")
	return fmt.Sprintf("%s_%s_%s_portrait.png", name, strings.ToLower(s.Race), strings.ToLower(s.Class))
}

// Portrait generates a portrait for s inside dir.
//
// Postcondition: on success the returned path lies in dir.
func (st *Studio) Portrait(ctx context.Context, s character.Sheet, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating portrait directory: %w", err)
	}
	prompt := st.Prompter.PortraitPrompt(ctx, ProfileFromSheet(s))
	path, err := st.Generator.Generate(ctx, prompt, filepath.Join(dir, PortraitFilename(s)))
	if err != nil {
		st.Logger.Warn("portrait generation failed", zap.String("character", s.Name), zap.Error(err))
		return "", fmt.Errorf("generating portrait for %q: %w", s.Name, err)
	}
	return path, nil
}

// Scene generates an illustration of sceneText inside dir, named
// "scene_{YYYYMMDD_HHMMSS}.png".
func (st *Studio) Scene(ctx context.Context, sceneText, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating scene directory: %w", err)
	}
	now := time.Now
	if st.Now != nil {
		now = st.Now
	}
	name := "scene_" + now().Format("20060102_150405") + ".png"
	prompt := st.Prompter.ScenePrompt(ctx, sceneText)
	path, err := st.Generator.Generate(ctx, prompt, filepath.Join(dir, name))
	if err != nil {
		st.Logger.Warn("scene generation failed", zap.Error(err))
		return "", fmt.Errorf("generating scene: %w", err)
	}
	return path, nil
}
