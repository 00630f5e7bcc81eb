package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"task-manager/configs"
	"task-manager/pkg/crypto"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Rules holds the input bounds; built once from configs.Config.
type Rules struct {
	UsernameMin    int
	UsernameMax    int
	PasswordMin    int
	TitleMax       int
	DescriptionMax int
}

func RulesFromConfig(cfg configs.Config) Rules {
	return Rules{
		UsernameMin:    cfg.UsernameMinLength,
		UsernameMax:    cfg.UsernameMaxLength,
		PasswordMin:    cfg.PasswordMinLength,
		TitleMax:       cfg.TitleMaxLength,
		DescriptionMax: cfg.DescriptionMaxLength,
	}
}

func DefaultRules() Rules {
	return Rules{UsernameMin: 3, UsernameMax: 50, PasswordMin: 8, TitleMax: 255, DescriptionMax: 2000}
}

// checkUsername rejects blank usernames; anything else is stored as sent.
func (r Rules) checkUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return invalid("username", "cannot be blank")
	}
	if err := validate.Var(username, fmt.Sprintf("min=%d,max=%d", r.UsernameMin, r.UsernameMax)); err != nil {
		return invalid("username", "must be between %d and %d characters", r.UsernameMin, r.UsernameMax)
	}
	return nil
}

func (r Rules) checkPassword(password string) error {
	if utf8.RuneCountInString(password) < r.PasswordMin {
		return invalid("password", "must be at least %d characters", r.PasswordMin)
	}
	if len(password) > crypto.MaxPasswordBytes {
		return invalid("password", "must be at most %d bytes", crypto.MaxPasswordBytes)
	}
	return nil
}

// cleanTitle trims the title and checks it is non-empty and within bounds.
func (r Rules) cleanTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", invalid("title", "cannot be empty")
	}
	if err := validate.Var(trimmed, fmt.Sprintf("max=%d", r.TitleMax)); err != nil {
		return "", invalid("title", "must be at most %d characters", r.TitleMax)
	}
	return trimmed, nil
}

func (r Rules) cleanDescription(description string) (string, error) {
	trimmed := strings.TrimSpace(description)
	if err := validate.Var(trimmed, fmt.Sprintf("max=%d", r.DescriptionMax)); err != nil {
		return "", invalid("description", "must be at most %d characters", r.DescriptionMax)
	}
	return trimmed, nil
}
