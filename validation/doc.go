// Package validation provides input validation for service
// descriptions, supervision configs, and admin API payloads.
//
// It supports both struct tag validation (using the validator library)
// and programmatic validation with error collection. Struct tag
// validation is the default for anything that crosses the registry
// boundary.
//
// # Struct Tag Validation
//
//	type Description struct {
//	    ID   string `json:"id" validate:"required"`
//	    Type string `json:"type" validate:"omitempty,max=64"`
//	}
//	err := validation.Validate(desc)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("id", id)
//	v.OneOf("strategy", strategy, []string{"restart", "reconnect", "reinitialize"})
//	err := v.Validate()
package validation
