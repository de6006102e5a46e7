package portrait

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
)

// MaxPromptWords is the longest narrator-written portrait prompt accepted
// before the direct template is used instead.
const MaxPromptWords = 60

// Prompter asks the narrator to write image prompts.
type Prompter struct {
	Narrator narrator.Narrator
	Model    string
	Logger   *zap.Logger
}

// PortraitPrompt returns an image prompt for p. The narrator customises a
// fixed template; a reply over MaxPromptWords is replaced by the filled
// template and a narrator failure yields a minimal template.
func (pr *Prompter) PortraitPrompt(ctx context.Context, p Profile) string {
	gender := InferGender(p)
	features := Features(p.Backstory)

	reply, err := pr.Narrator.Complete(ctx, narrator.Prompt(pr.Model, portraitRequest(p, gender)))
	if err != nil {
		pr.Logger.Warn("portrait prompt generation failed",
			zap.String("character", p.Name), zap.Error(err))
		return fmt.Sprintf("CGI style %s %s %s, %s, 3D cartoon art style, Pixar-inspired, fantasy background",
			gender, p.Race, p.Class, strings.Join(features, ", "))
	}
	if len(strings.Fields(reply)) > MaxPromptWords {
		pr.Logger.Info("portrait prompt too long, using template",
			zap.String("character", p.Name), zap.Int("words", len(strings.Fields(reply))))
		wearing := p.Equipment
		if len(wearing) > 2 {
			wearing = wearing[:2]
		}
		return fmt.Sprintf("CGI style %s %s %s, %s, wearing %s, 3D cartoon art style, Pixar-inspired, "+
			"determined expression, magical effects surrounding, fantasy background",
			gender, p.Race, p.Class, strings.Join(features, ", "), strings.Join(wearing, ", "))
	}
	return strings.TrimSpace(reply)
}

func portraitRequest(p Profile, gender string) string {
	return fmt.Sprintf(`Create a character portrait prompt following this exact format but customize it for the character:
"CGI style [gender] [race] [class], [2-3 distinctive physical features], [main equipment/clothing details], 3D cartoon art style, Pixar-inspired, [expression matching personality], [magical/environmental effects based on class/equipment], fantasy background"

Character Details:
Name: %[1]s
Gender: %[2]s
Race: %[3]s
Class: %[4]s
Equipment: %[5]s
Backstory: %[6]s

Important requirements:
1. Keep the prompt under %[7]d words
2. Maintain the CGI style and Pixar-inspired elements
3. Include distinctive features specific to their %[3]s race
4. Make the effects match their %[4]s class and equipment
5. Must specify %[2]s in the prompt
6. Keep the cartoon/CGI style description
7. Make background a fantasy environment based on the character.

Create a similar prompt for this character.`,
		p.Name, gender, p.Race, p.Class, strings.Join(p.Equipment, ", "), p.Backstory, MaxPromptWords)
}

// ScenePrompt rewrites narration into a single-line visual prompt. A
// narrator failure yields "fantasy scene with {sceneText}".
func (pr *Prompter) ScenePrompt(ctx context.Context, sceneText string) string {
	req := fmt.Sprintf(`Convert this D&D scene description into a clear, focused image generation prompt.
Focus on visual elements only. Keep within 100 words. Make it suitable for ai image generation.

Scene: %s

Format as a single detailed description focused on:
- Main subject/action
- Key visual elements
- Lighting and atmosphere
- Art style guidance

Do not include: dialogue, game mechanics, or non-visual elements.`, sceneText)
	reply, err := pr.Narrator.Complete(ctx, narrator.Prompt(pr.Model, req))
	if err != nil {
		pr.Logger.Warn("scene prompt generation failed", zap.Error(err))
		return "fantasy scene with " + sceneText
	}
	return strings.TrimSpace(strings.ReplaceAll(reply, "\n", " "))
}
