package dtos

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/orgtree/modules/org/services"
	"github.com/iota-uz/orgtree/pkg/constants"
)

// OrganizationDTO is the full organization payload. The admin surface
// decodes it from url-encoded forms, the REST API from JSON.
type OrganizationDTO struct {
	Name         string `form:"name" json:"name" validate:"required,max=255"`
	Abbreviation string `form:"abbreviation" json:"abbreviation" validate:"max=25"`
	Description  string `form:"description" json:"description"`
	Slug         string `form:"slug" json:"slug" validate:"omitempty,max=255"`
	Image        string `form:"image" json:"image" validate:"omitempty,max=255"`
	ParentID     *int64 `form:"parent_id" json:"parent_id" validate:"omitempty,gt=0"`
	MaxDepth     uint   `form:"max_depth" json:"max_depth"`
	IsActive     *bool  `form:"is_active" json:"is_active"`
}

func (dto *OrganizationDTO) Ok() (map[string]string, bool) {
	return validate(dto)
}

func (dto *OrganizationDTO) ToCreateInput(createdBy *uint) services.CreateOrganizationInput {
	return services.CreateOrganizationInput{
		Name:         dto.Name,
		Abbreviation: dto.Abbreviation,
		Description:  dto.Description,
		Slug:         dto.Slug,
		Image:        dto.Image,
		ParentID:     dto.ParentID,
		MaxDepth:     dto.MaxDepth,
		IsActive:     dto.IsActive,
		CreatedBy:    createdBy,
	}
}

// ToUpdateInput replaces every field. A missing parent turns the
// organization into a root. A missing slug keeps the current one.
func (dto *OrganizationDTO) ToUpdateInput(updatedBy *uint) services.UpdateOrganizationInput {
	in := services.UpdateOrganizationInput{
		Name:         &dto.Name,
		Abbreviation: &dto.Abbreviation,
		Description:  &dto.Description,
		Image:        &dto.Image,
		SetParent:    true,
		ParentID:     dto.ParentID,
		MaxDepth:     &dto.MaxDepth,
		IsActive:     dto.IsActive,
		UpdatedBy:    updatedBy,
	}
	if strings.TrimSpace(dto.Slug) != "" {
		in.Slug = &dto.Slug
	}
	return in
}

// PatchOrganizationDTO carries the fields present in a PATCH body.
type PatchOrganizationDTO struct {
	Name         *string       `json:"name" validate:"omitempty,max=255"`
	Abbreviation *string       `json:"abbreviation" validate:"omitempty,max=25"`
	Description  *string       `json:"description"`
	Slug         *string       `json:"slug" validate:"omitempty,max=255"`
	Image        *string       `json:"image" validate:"omitempty,max=255"`
	ParentID     OptionalInt64 `json:"parent_id"`
	MaxDepth     *uint         `json:"max_depth"`
	IsActive     *bool         `json:"is_active"`
}

func (dto *PatchOrganizationDTO) Ok() (map[string]string, bool) {
	errs, ok := validate(dto)
	if dto.ParentID.Value != nil && *dto.ParentID.Value <= 0 {
		errs["parent_id"] = "parent_id must be greater than 0"
		ok = false
	}
	return errs, ok
}

func (dto *PatchOrganizationDTO) ToUpdateInput(updatedBy *uint) services.UpdateOrganizationInput {
	return services.UpdateOrganizationInput{
		Name:         dto.Name,
		Abbreviation: dto.Abbreviation,
		Description:  dto.Description,
		Slug:         dto.Slug,
		Image:        dto.Image,
		SetParent:    dto.ParentID.Set,
		ParentID:     dto.ParentID.Value,
		MaxDepth:     dto.MaxDepth,
		IsActive:     dto.IsActive,
		UpdatedBy:    updatedBy,
	}
}

// OptionalInt64 tells an explicit null apart from an absent field.
type OptionalInt64 struct {
	Set   bool
	Value *int64
}

func (o *OptionalInt64) UnmarshalJSON(data []byte) error {
	o.Set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func validate(dto any) (map[string]string, bool) {
	errorMessages := map[string]string{}
	err := constants.Validate.Struct(dto)
	if err == nil {
		return errorMessages, true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errorMessages["_"] = err.Error()
		return errorMessages, false
	}
	for _, fe := range verrs {
		errorMessages[fe.Field()] = message(fe)
	}
	return errorMessages, len(errorMessages) == 0
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
