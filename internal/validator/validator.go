package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"campusmarket/internal/domain/model"

	playground "github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())

	//エラーの項目名はjsonタグにそろえる
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check は構造体タグで検証し、違反した項目を全部まとめて返す。
func check(s interface{}) *model.ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ves playground.ValidationErrors
	if !errors.As(err, &ves) {
		return model.NewValidationError(model.FieldError{Field: "body", Message: err.Error()})
	}

	out := &model.ValidationError{}
	for _, fe := range ves {
		out.Add(fieldPath(fe.Namespace()), message(fe))
	}
	return out
}

// "CreateOrderRequest.address.street" -> "address.street"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// nilのときだけerror型のnilを返す
func asError(v *model.ValidationError) error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func merge(dst *model.ValidationError, src *model.ValidationError) *model.ValidationError {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = &model.ValidationError{}
	}
	dst.Fields = append(dst.Fields, src.Fields...)
	return dst
}
