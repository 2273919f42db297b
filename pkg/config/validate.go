package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
)

// validate is the validator instance for configuration structs.
// Initialized in init() with custom validators.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("floor", validateFloor)
	_ = validate.RegisterValidation("assetpath", validateAssetPath)
}

// validateFloor accepts a known floor prefix.
func validateFloor(fl validator.FieldLevel) bool {
	_, err := floor.Parse(fl.Field().String())
	return err == nil
}

// validateAssetPath accepts a relative path that stays inside the asset
// directory.
func validateAssetPath(fl validator.FieldLevel) bool {
	return errors.ValidateAssetPath(fl.Field().String()) == nil
}

// Validate checks field constraints and cross-field rules: each floor and
// each connector key appears once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", describe(err))
	}
	seen := make(map[string]bool)
	for _, ff := range c.Floors {
		f, _ := floor.Parse(ff.Floor)
		if seen[f.Prefix()] {
			return errors.New(errors.ErrCodeInvalidConfig, "floor %s configured twice", f.Prefix())
		}
		seen[f.Prefix()] = true
	}
	keys := make(map[string]bool)
	for _, conn := range c.Connectors {
		if keys[conn.Key] {
			return errors.New(errors.ErrCodeInvalidConfig, "connector %q configured twice", conn.Key)
		}
		keys[conn.Key] = true
	}
	return nil
}

// describe renders validator errors with TOML key paths.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", path, fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: failed %s", path, fe.Tag()))
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}
