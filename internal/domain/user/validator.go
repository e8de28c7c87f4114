package user

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zconst"
)

const (
	MinLoginLen    = 3
	MaxLoginLen    = 32
	MinPasswordLen = 8
)

var loginPattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+$`)

// Validator - интерфейс для валидации пользовательских данных
type Validator interface {
	ValidateRegister(login, password string) error
	ValidateLogin(login string) error
	ValidatePassword(password string) error
}

type credentials struct {
	Login string
}

var loginSchema = z.Struct(z.Shape{
	"Login": z.String().
		Min(MinLoginLen, z.Message(fmt.Sprintf("login must be at least %d characters", MinLoginLen))).
		Max(MaxLoginLen, z.Message(fmt.Sprintf("login must be at most %d characters", MaxLoginLen))).
		Match(loginPattern, z.Message("login can only contain letters, digits, '_', '-', '.'")).
		Required(z.Message("login is required")),
})

type PasswordValidator struct {
	requireSpecialChar bool
	requireDigit       bool
	requireUpper       bool
	requireLower       bool
}

// NewPasswordValidator создает новый валидатор
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		requireSpecialChar: true,
		requireDigit:       true,
		requireUpper:       true,
		requireLower:       true,
	}
}

// ValidateRegister валидирует данные для регистрации
func (v *PasswordValidator) ValidateRegister(login, password string) error {
	if err := v.ValidateLogin(login); err != nil {
		return fmt.Errorf("login validation failed: %w", err)
	}
	if err := v.ValidatePassword(password); err != nil {
		return fmt.Errorf("password validation failed: %w", err)
	}
	return nil
}

// ValidateLogin валидирует логин
func (v *PasswordValidator) ValidateLogin(login string) error {
	c := credentials{Login: login}
	if issues := loginSchema.Validate(&c); len(issues) > 0 {
		return errors.New(issues[zconst.ISSUE_KEY_FIRST][0].Message)
	}
	return nil
}

// ValidatePassword валидирует пароль
func (v *PasswordValidator) ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	var missing []string
	if v.requireLower && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if v.requireUpper && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if v.requireDigit && !hasDigit {
		missing = append(missing, "digit")
	}
	if v.requireSpecialChar && !hasSpecial {
		missing = append(missing, "special character")
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one %s", strings.Join(missing, ", "))
	}
	return nil
}
