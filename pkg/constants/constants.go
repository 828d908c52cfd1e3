package constants

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	TxKey     ContextKey = "tx"
	PoolKey   ContextKey = "pool"
	LoggerKey ContextKey = "logger"
	ParamsKey ContextKey = "params"
	UserKey   ContextKey = "user"
	LabelsKey ContextKey = "organization_labels"
)

// Validate reports field errors under their json names.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}
