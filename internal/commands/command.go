package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeRename Type = "rename"
	TypeMove   Type = "move"
	TypeLabel  Type = "label"
	TypeTimer  Type = "timer"
	TypeList   Type = "list"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	Content string
}

type DoneArgs struct {
	Row int
}

type RenameArgs struct {
	Row     int
	Content string
}

type MoveArgs struct {
	Row       int
	ParentRow int
	ToRoot    bool
}

type LabelArgs struct {
	Row    int
	Labels []string
}

type TimerArgs struct {
	Action string
}

type ListArgs struct {
	Name string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Done   *DoneArgs
	Rename *RenameArgs
	Move   *MoveArgs
	Label  *LabelArgs
	Timer  *TimerArgs
	List   *ListArgs
}

// Parse turns a palette line like "/move 3 under 1" into a typed Command.
// Rows are the 1-based numbers shown next to tasks in the panel.
func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseDone(input, args)
	case TypeRename:
		return parseRename(input, args)
	case TypeMove:
		return parseMove(input, args)
	case TypeLabel:
		return parseLabel(input, args)
	case TypeTimer:
		return parseTimer(input, args)
	case TypeList:
		return parseList(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseRow(arg string) (int, error) {
	row, err := strconv.Atoi(arg)
	if err != nil || row < 1 {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("task number must be a positive integer, got %q", arg)}
	}
	return row, nil
}

func parseAdd(raw string, args []string) (Command, error) {
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires task content"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Content: content}}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "done requires a task number"}
	}
	row, err := parseRow(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{Row: row}}, nil
}

func parseRename(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "rename requires a task number and new content"}
	}
	row, err := parseRow(args[0])
	if err != nil {
		return Command{}, err
	}
	content := strings.TrimSpace(strings.Join(args[1:], " "))
	if content == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "rename requires new content"}
	}
	return Command{Type: TypeRename, Raw: raw, Rename: &RenameArgs{Row: row, Content: content}}, nil
}

func parseMove(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "move requires a task number and a destination (\"under N\" or \"root\")"}
	}
	row, err := parseRow(args[0])
	if err != nil {
		return Command{}, err
	}
	switch strings.ToLower(args[1]) {
	case "root":
		return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{Row: row, ToRoot: true}}, nil
	case "under":
		if len(args) != 3 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "move under requires a parent task number"}
		}
		parent, err := parseRow(args[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{Row: row, ParentRow: parent}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("move destination must be \"under N\" or \"root\", got %q", args[1])}
	}
}

func parseLabel(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "label requires a task number and labels (or \"-\" to clear)"}
	}
	row, err := parseRow(args[0])
	if err != nil {
		return Command{}, err
	}
	labels := args[1:]
	if len(labels) == 1 && labels[0] == "-" {
		return Command{Type: TypeLabel, Raw: raw, Label: &LabelArgs{Row: row, Labels: []string{}}}, nil
	}
	for _, l := range labels {
		if strings.Contains(l, ",") {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("labels must not contain commas, got %q", l)}
		}
	}
	return Command{Type: TypeLabel, Raw: raw, Label: &LabelArgs{Row: row, Labels: labels}}, nil
}

func parseTimer(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "timer requires one of: start, pause, reset, skip, reset-sets"}
	}
	action := strings.ToLower(args[0])
	switch action {
	case "start", "pause", "reset", "skip", "reset-sets":
		return Command{Type: TypeTimer, Raw: raw, Timer: &TimerArgs{Action: action}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown timer action: %s", action)}
	}
}

func parseList(raw string, args []string) (Command, error) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "list requires a name"}
	}
	return Command{Type: TypeList, Raw: raw, List: &ListArgs{Name: name}}, nil
}
