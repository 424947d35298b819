package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"lexshell/pkg/lextypes"
)

var notBlank = validation.By(func(value interface{}) error {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// ValidateChatRequest checks an outgoing chat request before it is sent.
func ValidateChatRequest(req lextypes.AIRequest) error {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Message, validation.Required, notBlank),
		validation.Field(&req.Messages, validation.Each(validation.By(validateRequestMessage))),
	)
	if err != nil {
		return err
	}
	if req.Config != nil {
		cfg := req.Config
		return validation.ValidateStruct(cfg,
			validation.Field(&cfg.Temperature, validation.Min(0.0), validation.Max(2.0)),
			validation.Field(&cfg.MaxFileSizeMB, validation.Min(1)),
		)
	}
	return nil
}

func validateRequestMessage(value interface{}) error {
	msg, ok := value.(lextypes.RequestMessage)
	if !ok {
		return errors.New("must be a request message")
	}
	return validation.Validate(string(msg.Role),
		validation.Required,
		validation.In(string(lextypes.RoleUser), string(lextypes.RoleAssistant)),
	)
}

// ValidateSearchParams checks search filters that have a closed value set.
func ValidateSearchParams(params lextypes.SearchParams) error {
	return validation.ValidateStruct(&params,
		validation.Field(&params.Type, validation.In(lextypes.QuestionTypeMCQ, lextypes.QuestionTypeEssay)),
	)
}

// ValidateItemID checks a past question id.
func ValidateItemID(id string) error {
	return validation.Validate(id, validation.Required, notBlank)
}
