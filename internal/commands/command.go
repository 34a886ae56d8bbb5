package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/calplan/internal/model"
)

type Type string

const (
	TypeExpand  Type = "expand"
	TypeLayout  Type = "layout"
	TypeSuggest Type = "suggest"
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

type ExpandArgs struct {
	From model.Date
	To   model.Date
}

type LayoutArgs struct {
	Date model.Date
}

type SuggestArgs struct {
	Today         model.Date
	AllowWeekends bool
	// BreakMinutes is -1 when the line does not override it.
	BreakMinutes int
}

type Command struct {
	Type    Type
	Raw     string
	Expand  *ExpandArgs
	Layout  *LayoutArgs
	Suggest *SuggestArgs
}

// Parse reads one batch line. Blank lines and lines starting with '#'
// are reported as ErrCodeEmptyInput so callers can skip them.
func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" || strings.HasPrefix(raw, "#") {
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
	case TypeExpand:
		return parseExpand(input, args)
	case TypeLayout:
		return parseLayout(input, args)
	case TypeSuggest:
		return parseSuggest(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseExpand(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "expand requires from and to dates"}
	}
	from, err := parseDate(args[0])
	if err != nil {
		return Command{}, err
	}
	to, err := parseDate(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeExpand, Raw: raw, Expand: &ExpandArgs{From: from, To: to}}, nil
}

func parseLayout(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "layout requires a date"}
	}
	d, err := parseDate(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeLayout, Raw: raw, Layout: &LayoutArgs{Date: d}}, nil
}

func parseSuggest(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "suggest requires a start date"}
	}
	today, err := parseDate(args[0])
	if err != nil {
		return Command{}, err
	}
	out := SuggestArgs{Today: today, BreakMinutes: -1}
	for _, arg := range args[1:] {
		lower := strings.ToLower(arg)
		switch {
		case lower == "weekends":
			out.AllowWeekends = true
		case strings.HasPrefix(lower, "break:"):
			n, err := strconv.Atoi(strings.TrimPrefix(lower, "break:"))
			if err != nil || n < 0 {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid break: %s", arg)}
			}
			out.BreakMinutes = n
		default:
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown suggest option: %s", arg)}
		}
	}
	return Command{Type: TypeSuggest, Raw: raw, Suggest: &out}, nil
}

func parseDate(s string) (model.Date, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid date: %s", s)}
	}
	return d, nil
}
