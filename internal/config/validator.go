package config

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator instance
// used across the config package, mirroring the one-struct-tag-validator
// convention used elsewhere in this module.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// Validate checks a decoded Document's struct tags (spec §6.4 surface).
// Opaque plugin settings and task templates are never validated here.
func Validate(doc *Document) error {
	return validatorInstance().Struct(doc)
}
