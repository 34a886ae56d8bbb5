package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Expand  func(ExpandArgs) (Result, error)
	Layout  func(LayoutArgs) (Result, error)
	Suggest func(SuggestArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeExpand:
		if handlers.Expand == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "expand handler not configured"}
		}
		return handlers.Expand(*cmd.Expand)
	case TypeLayout:
		if handlers.Layout == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "layout handler not configured"}
		}
		return handlers.Layout(*cmd.Layout)
	case TypeSuggest:
		if handlers.Suggest == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "suggest handler not configured"}
		}
		return handlers.Suggest(*cmd.Suggest)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
