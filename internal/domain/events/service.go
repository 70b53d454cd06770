package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/Togather-Foundation/eventboard/internal/domain/ids"
	"github.com/Togather-Foundation/eventboard/internal/sanitize"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire and storage format of Event.Date.
const DateLayout = "2006-01-02"

// IsDate reports whether value is a valid calendar date in DateLayout.
// Year zero parses but is not a date Postgres can store.
func IsDate(value string) bool {
	date, err := time.Parse(DateLayout, value)
	return err == nil && date.Year() >= 1
}

// IsPlainText reports whether value is free of control characters other
// than tab, line feed and carriage return. NUL in particular cannot be
// stored in a TEXT column.
func IsPlainText(value string) bool {
	for _, r := range value {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// EventInput is the body accepted when creating an event.
type EventInput struct {
	Title       string `json:"title" validate:"required,max=200,plaintext"`
	Description string `json:"description" validate:"max=5000,plaintext"`
	Location    string `json:"location" validate:"max=300,plaintext"`
	Date        string `json:"date" validate:"required,isodate"`
}

// EventPatch is the body accepted when updating an event. Only fields
// present in the body are changed.
type EventPatch struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=200,plaintext"`
	Description *string `json:"description" validate:"omitnil,max=5000,plaintext"`
	Location    *string `json:"location" validate:"omitnil,max=300,plaintext"`
	Date        *string `json:"date" validate:"omitnil,isodate"`
}

type Service struct {
	repo      Repository
	validator *validator.Validate
}

func NewService(repo Repository) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("plaintext", func(fl validator.FieldLevel) bool {
		return IsPlainText(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})
	return &Service{repo: repo, validator: v}
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if items == nil {
		items = []Event{}
	}
	return items, nil
}

// Get returns the event with the given ID. Malformed IDs cannot name an
// event, so they are reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	if !ids.IsULID(id) {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, ids.NormalizeULID(id))
}

func (s *Service) Create(ctx context.Context, ownerID string, input EventInput) (*Event, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrForbidden
	}

	input.Title = sanitize.Text(input.Title)
	input.Description = sanitize.Text(input.Description)
	input.Location = sanitize.Text(input.Location)
	input.Date = strings.TrimSpace(input.Date)

	if err := s.validate(input); err != nil {
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	return s.repo.Create(ctx, EventCreateParams{
		ID:          id,
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Date:        input.Date,
	})
}

// Update merges the fields present in patch into the event. Only the owner
// may update an event; the ownership check and the write share a transaction
// when the repository supports one.
func (s *Service) Update(ctx context.Context, ownerID string, id string, patch EventPatch) (*Event, error) {
	var updated *Event
	err := s.inTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := ownedEvent(ctx, repo, ownerID, id)
		if err != nil {
			return err
		}

		patch.Title = sanitize.TextPtr(patch.Title)
		patch.Description = sanitize.TextPtr(patch.Description)
		patch.Location = sanitize.TextPtr(patch.Location)
		if patch.Date != nil {
			date := strings.TrimSpace(*patch.Date)
			patch.Date = &date
		}

		params := EventUpdateParams(patch)
		if params.IsEmpty() {
			return ValidationError{Message: "request body must contain at least one of title, description, location, date"}
		}
		if err := s.validate(patch); err != nil {
			return err
		}

		updated, err = repo.Update(ctx, existing.ID, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the event. Only the owner may delete an event.
func (s *Service) Delete(ctx context.Context, ownerID string, id string) error {
	return s.inTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := ownedEvent(ctx, repo, ownerID, id)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, existing.ID)
	})
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if txRepo, ok := s.repo.(TxRepository); ok {
		return txRepo.WithTx(ctx, fn)
	}
	return fn(ctx, s.repo)
}

func ownedEvent(ctx context.Context, repo Repository, ownerID string, id string) (*Event, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrForbidden
	}
	if !ids.IsULID(id) {
		return nil, ErrNotFound
	}
	existing, err := repo.Get(ctx, ids.NormalizeULID(id))
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return existing, nil
}

func (s *Service) validate(input any) error {
	err := s.validator.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate event: %w", err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = describeFieldError(fe)
	}
	return ValidationError{Message: "invalid event", Fields: fields}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "plaintext":
		return "must not contain control characters"
	default:
		return "is invalid"
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
