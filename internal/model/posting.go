package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxSalary is the largest salary a posting may carry, in whole rubles.
const MaxSalary = math.MaxInt32

// PostingStatus is the lifecycle flag of a local posting.
type PostingStatus string

const (
	StatusActive   PostingStatus = "active"
	StatusInactive PostingStatus = "inactive"
)

// LocalJobPosting is a vacancy stored by this application's own job store.
type LocalJobPosting struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Salary      float64       `json:"salary"`
	CreatedBy   string        `json:"userId"`
	CreatorMail string        `json:"userEmail,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	Status      PostingStatus `json:"status"`
}

// Author identifies the user creating a posting.
type Author struct {
	UserID string
	Email  string
}

// PostingInput is the raw employer form. Salary stays a string so that
// non-numeric input can be reported as a field violation.
type PostingInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Salary      string `json:"salary"`
}

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("validation failed")

// FieldViolation names one rejected form field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a PostingInput.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate checks the form and returns the normalized values to store.
// All violations are collected; the error is a *ValidationError.
func (in PostingInput) Validate() (title, description string, salary float64, err error) {
	var violations []FieldViolation

	title = strings.TrimSpace(in.Title)
	description = strings.TrimSpace(in.Description)
	raw := strings.TrimSpace(in.Salary)

	if title == "" {
		violations = append(violations, FieldViolation{Field: "title", Message: "Название вакансии должно быть заполнено"})
	}
	if description == "" {
		violations = append(violations, FieldViolation{Field: "description", Message: "Описание вакансии должно быть заполнено"})
	}

	switch {
	case raw == "":
		violations = append(violations, FieldViolation{Field: "salary", Message: "Зарплата должна быть указана"})
	default:
		v, perr := strconv.ParseFloat(raw, 64)
		switch {
		case perr != nil || math.IsNaN(v) || math.IsInf(v, 0):
			violations = append(violations, FieldViolation{Field: "salary", Message: "Зарплата должна быть числом"})
		case v <= 0:
			violations = append(violations, FieldViolation{Field: "salary", Message: "Зарплата должна быть больше нуля"})
		case v != math.Trunc(v):
			violations = append(violations, FieldViolation{Field: "salary", Message: "Зарплата должна быть целым числом"})
		case v > MaxSalary:
			violations = append(violations, FieldViolation{Field: "salary", Message: "Зарплата слишком большая"})
		default:
			salary = v
		}
	}

	if len(violations) > 0 {
		return "", "", 0, &ValidationError{Violations: violations}
	}
	return title, description, salary, nil
}
