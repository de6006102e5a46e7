package command

import "strings"

// Prefix introduces a console command. Any other line is a player action.
const Prefix = "/"

// ParseResult holds the parsed form of one input line.
type ParseResult struct {
	// Command is the first word after the prefix, lowercased. Empty for
	// player actions and blank lines.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command, preserving inner spacing.
	RawArgs string
	// Action is the trimmed line when it is not a command.
	Action string
}

// IsCommand reports whether the line was a console command.
func (p ParseResult) IsCommand() bool { return p.Command != "" }

// Parse splits a line into a command and arguments, or returns it as a
// player action.
//
// Postcondition: at most one of Command and Action is non-empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Prefix) {
		return ParseResult{Action: line}
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, Prefix))
	if line == "" {
		return ParseResult{}
	}

	spaceIdx := strings.IndexAny(line, " \t")
	if spaceIdx < 0 {
		return ParseResult{Command: strings.ToLower(line)}
	}

	rest := strings.TrimSpace(line[spaceIdx+1:])
	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}
	return ParseResult{
		Command: strings.ToLower(line[:spaceIdx]),
		Args:    args,
		RawArgs: rest,
	}
}
