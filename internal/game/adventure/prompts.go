package adventure

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
)

const noMarkdown = `Do not use any * for emphasis or any other reason.
Do not use any bolding or italics.
Do not use any markdown formatting.`

func introPrompt(summaries []string) string {
	return fmt.Sprintf(`You are the Dungeon Master for a D&D 5e game.
You are to create an exciting D&D adventure introduction.
Keep the total response under 700 words.

Use this detailed information about the party members to craft an engaging and personalized story:

PARTY DETAILS:
%s

Create an introduction with these sections:

1. World Setting (2-3 sentences):
Describe the world and current situation.

2. Initial Scene (2-3 sentences):
Set the immediate scene where the party meets, incorporating their backgrounds.

3. Party Introduction:
Introduce each character using their specific traits, equipment, and backgrounds.

4. Opening Challenge:
Present an initial quest that connects to at least one character's backstory.

%s
Do not make the introduction too long.

End with a clear question or choice for the party.`, strings.Join(summaries, "\n"), noMarkdown)
}

func continuationPrompt(roster string, actions []Action, responses []string) string {
	acts := make([]string, 0, len(actions))
	for _, a := range actions {
		acts = append(acts, fmt.Sprintf("%s: %s", a.Actor, a.Text))
	}
	return fmt.Sprintf(`You are the Dungeon Master for D&D 5e.
You are controlling the NPCs in the party. The player is controlling only their character.
Your response must not contain any asterisks, markdown, or special formatting.
Write naturally as if speaking to the players.

Party Members:
%s

Recent Events: %s
Latest Actions: %s

1. Acknowledge the player's action
2. If the action requires a check or roll, specify:
   "Suggest a [skill] check - DC [number]" or
   "Suggest a [type] saving throw - DC [number]" or
   "Suggest an attack roll" but do not force the player to roll.
3. Only describe the outcome after a roll is made
4. Use game mechanics properly (skill checks, saving throws, etc.)
5. End with a prompt for the next action. Do not ask the NPCs what they want to do. You are controlling them.
6. Do not ask the player to roll for NPC checks. Perform NPC rolls yourself automatically.

Keep response under 250 words. Make sure to include a roll at least every 3 turns.`,
		roster, strings.Join(responses, " "), strings.Join(acts, " "))
}

func rollOutcomePrompt(roll, dc int, last string) string {
	return fmt.Sprintf(`The player rolled %[1]d on a d20 against DC %[2]d.

Determine the outcome:
- On a %[1]d vs DC %[2]d
- If %[1]d >= %[2]d: Success
- If %[1]d < %[2]d: Failure

Last game state: %[3]s

Provide the outcome of this specific roll (%[1]d), describing success or failure, and move the story forward.
Be concise (max 3 sentences for the outcome).
Then provide a new prompt for the next action.
Do not ask for another roll immediately.`, roll, dc, last)
}

func rollPrompt(roll int, last string) string {
	return fmt.Sprintf(`The player rolled %[1]d on a d20.
The roll result is exactly %[1]d, not higher or lower.

Last game state: %[2]s

Describe the outcome of this %[1]d roll and move the story forward.
Be concise (max 3 sentences).
Then provide a new prompt for the next action.
Do not ask for another roll immediately.`, roll, last)
}

func recapPrompt(initial string, recent []string, words int) string {
	lines := make([]string, 0, len(recent))
	for _, r := range recent {
		lines = append(lines, "- "+r)
	}
	return fmt.Sprintf(`As the DM, create a brief recap of the story so far, presenting it as if the player is just waking up from a dream where they remember these events.

Initial story setup:
%s

Most recent events:
%s

Requirements for the recap:
1. Start with "As you slowly wake from your dream, you recall the recent events..."
2. Briefly mention the initial setup (1 sentence)
3. Focus on the most recent events (2-3 paragraphs)
4. End with the current situation/challenge
5. Keep the dream-like quality but make it clear these events really happened
6. Include key character names and important details
7. Keep it under %d words

Format it naturally as if speaking to the player.`, initial, strings.Join(lines, "\n"), words)
}

// characterSystem frames character generation requests.
const characterSystem = "You are a D&D character creator. Generate characters following the EXACT format provided. Do not add ANY additional commentary."

func characterPrompt(name, race string) string {
	return fmt.Sprintf(`You are a D&D character creator. Create a level 5 character using EXACTLY this format.
Do not add any extra text or explanations.

Name: %s
Race: %s
Class: [Pick one: %s]
Level: 5

Ability Scores:
STR: [roll 10-18]
DEX: [roll 10-18]
CON: [roll 10-18]
INT: [roll 10-18]
WIS: [roll 10-18]
CHA: [roll 10-18]

HP: [Calculate based on class and CON]
AC: [10 + DEX mod + armor]

Background: [Pick one D&D background]
Alignment: [Pick one D&D alignment]

Personality:
[2-3 clear personality traits]

Equipment:
- [Specific main weapon]
- [Specific armor type]
- [2-3 specific items]

Backstory:
[3-4 sentences, be specific and concise]`, name, race, strings.Join(character.Classes, "/"))
}

func npcActionPrompt(name, sheet, roster string, responses []string) string {
	return fmt.Sprintf(`You are playing %s, a member of an adventuring party in a D&D 5e game.

Your character:
%s

Party Members:
%s

Recent Events: %s

Describe in one or two sentences what %s does next, in the third person.
Stay in character. Do not narrate outcomes or other characters' actions.
%s`, name, sheet, roster, strings.Join(responses, " "), name, noMarkdown)
}
