package schedule

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind categorizes a validation failure.
type Kind string

const (
	MissingField     Kind = "missing_field"
	BadDate          Kind = "bad_date"
	BadTime          Kind = "bad_time"
	InvertedInterval Kind = "inverted_interval"
	BadCapacity      Kind = "bad_capacity"
)

// ValidationError is returned when request input is rejected before any
// storage access.
type ValidationError struct {
	Kind     Kind
	Message  string
	Required []string
	Missing  []string
	// Formats is set when a malformed date or time should be answered with
	// the accepted layouts.
	Formats map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return e.Message + ": " + strings.Join(e.Missing, ", ")
	}
	return e.Message
}

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

	validate = newValidator()
)

// Formats documents the accepted date and time layouts.
var Formats = map[string]string{
	"date": "YYYY-MM-DD",
	"time": "HH:MM",
}

var (
	bookingRequired = []string{"roomId", "date", "startTime", "endTime", "professorName", "course"}
	slotRequired    = []string{"date", "startTime", "endTime"}
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	must(v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return datePattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// BookingInput is the raw payload of a booking creation request.
type BookingInput struct {
	RoomID        string `json:"roomId" validate:"required"`
	Date          string `json:"date" validate:"required,isodate"`
	StartTime     string `json:"startTime" validate:"required,clock"`
	EndTime       string `json:"endTime" validate:"required,clock"`
	ProfessorName string `json:"professorName" validate:"required"`
	Course        string `json:"course" validate:"required"`
	Notes         string `json:"notes"`
}

// SlotInput is the raw query of an availability request.
type SlotInput struct {
	Date        string `json:"date" form:"date" validate:"required,isodate"`
	StartTime   string `json:"startTime" form:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" form:"endTime" validate:"required,clock"`
	MinCapacity string `json:"minCapacity" form:"minCapacity" validate:"omitempty,number"`
}

// Interval returns the requested time range.
func (in BookingInput) Interval() Interval {
	return Interval{Start: in.StartTime, End: in.EndTime}
}

// Interval returns the requested time range.
func (in SlotInput) Interval() Interval {
	return Interval{Start: in.StartTime, End: in.EndTime}
}

// Capacity returns the parsed minimum capacity, zero when absent. Values
// beyond the int range saturate, so no room can satisfy them.
func (in SlotInput) Capacity() (int, error) {
	if in.MinCapacity == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(in.MinCapacity)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(in.MinCapacity, "-") {
			return math.MaxInt, nil
		}
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative capacity %d", n)
	}
	return n, nil
}

// ValidateBooking checks a creation request: required fields, date format,
// time format and interval order, in that order.
func ValidateBooking(in BookingInput) error {
	return check(in, in.Interval(), bookingRequired, "Missing required fields")
}

// ValidateSlot checks an availability request with the same rules as
// ValidateBooking, plus the optional minimum capacity.
func ValidateSlot(in SlotInput) error {
	err := check(in, in.Interval(), slotRequired, "Missing required parameters")
	var ve *ValidationError
	if errors.As(err, &ve) && (ve.Kind == BadDate || ve.Kind == BadTime) {
		ve.Message = "Invalid format"
		ve.Formats = maps.Clone(Formats)
	}
	if err == nil {
		if _, cerr := in.Capacity(); cerr != nil {
			return &ValidationError{Kind: BadCapacity, Message: "minCapacity must be a non-negative integer"}
		}
	}
	return err
}

func check(in any, iv Interval, required []string, missingMsg string) error {
	var (
		missing          []string
		badDate, badTime bool
		badCapacity      bool
	)

	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			switch fe.Tag() {
			case "required":
				missing = append(missing, fe.Field())
			case "isodate":
				badDate = true
			case "clock":
				badTime = true
			case "number":
				badCapacity = true
			}
		}
	}

	switch {
	case len(missing) > 0:
		return &ValidationError{Kind: MissingField, Message: missingMsg, Required: required, Missing: missing}
	case badDate:
		return &ValidationError{Kind: BadDate, Message: "Invalid date format. Use YYYY-MM-DD"}
	case badTime:
		return &ValidationError{Kind: BadTime, Message: "Invalid time format. Use HH:MM"}
	case iv.Start >= iv.End:
		return &ValidationError{Kind: InvertedInterval, Message: "End time must be after start time"}
	case badCapacity:
		return &ValidationError{Kind: BadCapacity, Message: "minCapacity must be a non-negative integer"}
	}
	return nil
}
