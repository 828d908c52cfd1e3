package shared

import (
	"github.com/go-playground/form"
)

// Decoder turns url-encoded form values into DTOs tagged with `form:"..."`.
var Decoder = form.NewDecoder()
