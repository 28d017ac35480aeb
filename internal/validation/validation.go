// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Сообщения об ошибках валидации, показываемые пользователю.
const (
	MsgEmptyUsername = "Username cannot be empty"
	MsgEmptyPassword = "Password cannot be empty"
	MsgEmptyHost     = "Host cannot be empty"
	MsgNegativeCost  = "Cost cannot be negative"
	MsgInvalidCost   = "Cost is not a valid amount"
	MsgNoBreaks      = "No breaks selected"
)

// FieldError описывает ошибку валидации одного поля.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// Credentials проверяет, что логин и пароль не пустые. Логин проверяется первым.
func Credentials(username, password string) error {
	if username == "" {
		return &FieldError{Field: "username", Message: MsgEmptyUsername}
	}
	if password == "" {
		return &FieldError{Field: "password", Message: MsgEmptyPassword}
	}
	return nil
}

// Host проверяет имя ведущего перерыва.
func Host(host string) error {
	if strings.TrimSpace(host) == "" {
		return &FieldError{Field: "host_name", Message: MsgEmptyHost}
	}
	return nil
}

// MaxCost ограничивает сумму расходов одного перерыва.
const MaxCost = 1_000_000

// Cost проверяет сумму расходов.
func Cost(cost float64) error {
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost > MaxCost {
		return &FieldError{Field: "cost", Message: MsgInvalidCost}
	}
	if cost < 0 {
		return &FieldError{Field: "cost", Message: MsgNegativeCost}
	}
	return nil
}

// BreakIDs проверяет, что список перерывов для заявки не пуст.
func BreakIDs(ids []int64) error {
	if len(ids) == 0 {
		return &FieldError{Field: "break_ids", Message: MsgNoBreaks}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct проверяет структуру по тегам validate и возвращает первую найденную ошибку как FieldError.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &FieldError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()),
		}
	}
	return err
}
