package bot

import (
	"fmt"
	"strconv"
	"strings"

	"mint-bot/internal/conversation"
)

// encodeChoice renders a choice as "action" or "action:data" callback data.
func encodeChoice(choice conversation.Choice) string {
	switch c := choice.(type) {
	case conversation.Cancel:
		return callbackCancel
	case conversation.PickForDelete:
		return fmt.Sprintf("%s:%d", callbackPickDelete, c.EventID)
	case conversation.ConfirmDelete:
		return fmt.Sprintf("%s:%d", callbackConfirmDelete, c.EventID)
	case conversation.PickForEdit:
		return fmt.Sprintf("%s:%d", callbackPickEdit, c.EventID)
	case conversation.EditField:
		return fmt.Sprintf("%s:%s", callbackEditField, c.Field)
	}
	return callbackCancel
}

func decodeChoice(data string) (conversation.Choice, error) {
	action, value, _ := strings.Cut(data, ":")
	switch action {
	case callbackCancel:
		return conversation.Cancel{}, nil
	case callbackPickDelete, callbackConfirmDelete, callbackPickEdit:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid event id in callback %q", data)
		}
		switch action {
		case callbackPickDelete:
			return conversation.PickForDelete{EventID: id}, nil
		case callbackConfirmDelete:
			return conversation.ConfirmDelete{EventID: id}, nil
		default:
			return conversation.PickForEdit{EventID: id}, nil
		}
	case callbackEditField:
		field := conversation.Field(value)
		switch field {
		case conversation.FieldName, conversation.FieldLink, conversation.FieldStages:
			return conversation.EditField{Field: field}, nil
		}
		return nil, fmt.Errorf("unknown field in callback %q", data)
	}
	return nil, fmt.Errorf("unknown callback %q", data)
}
