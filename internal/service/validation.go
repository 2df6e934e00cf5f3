package service

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

// validate checks the same "binding" tags gin uses, so requests that do not come
// through HTTP get the same rules.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and reports failures as a ValidationError.
func validateStruct(s interface{}) *entity.ValidationError {
	verr := entity.NewValidationError()

	err := validate.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("request", err.Error())
		return verr
	}

	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe.Namespace()), tagMessage(fe))
	}
	return verr
}

// fieldPath drops the struct name from a validator namespace:
// "CreateBookingRequest.equipment[0].quantity" -> "equipment[0].quantity".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// parseWindow validates a date and an HH:MM window with start strictly before end.
func parseWindow(verr *entity.ValidationError, dateField, date, start, end string) (entity.ClockTime, entity.ClockTime) {
	if _, err := entity.ParseDate(date); err != nil {
		verr.Add(dateField, "must be a date in YYYY-MM-DD format")
	}

	startTime, err := entity.ParseClockTime(start)
	if err != nil {
		verr.Add("start_time", "must be a time in HH:MM format")
	}
	endTime, err := entity.ParseClockTime(end)
	if err != nil {
		verr.Add("end_time", "must be a time in HH:MM format")
	}

	if startTime != "" && endTime != "" && startTime >= endTime {
		verr.Add("end_time", "must be after start_time")
	}
	return startTime, endTime
}

// parseAllocations checks the requested items. Zero quantities are dropped when
// dropZero is set and rejected otherwise; duplicate equipment ids are rejected.
func parseAllocations(verr *entity.ValidationError, items []AllocationRequest, dropZero bool) []entity.BookingEquipment {
	seen := make(map[string]bool, len(items))
	allocations := make([]entity.BookingEquipment, 0, len(items))

	for i, item := range items {
		field := fmt.Sprintf("equipment[%d]", i)
		switch {
		case blank(item.EquipmentID):
			verr.Add(field+".equipment_id", "is required")
			continue
		case item.Quantity < 0, item.Quantity == 0 && !dropZero:
			verr.Add(field+".quantity", "must be greater than 0")
			continue
		case item.Quantity == 0:
			continue
		case seen[item.EquipmentID]:
			verr.Add(field+".equipment_id", "is listed more than once")
			continue
		}

		seen[item.EquipmentID] = true
		allocations = append(allocations, entity.BookingEquipment{
			EquipmentID: item.EquipmentID,
			Quantity:    item.Quantity,
		})
	}
	return allocations
}

func validVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
