package prompt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/generation"
)

//go:embed default_prompt.tmpl
var defaultTemplate string

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// Builder renders prompts from a parsed template. It is safe for
// concurrent use and performs no I/O after construction.
type Builder struct {
	tmpl     *template.Template
	validate *validator.Validate
}

// NewBuilder parses the embedded default template, or the template at
// templatePath when it is non-empty.
func NewBuilder(templatePath string) (*Builder, error) {
	content := defaultTemplate
	name := "default"
	if templatePath != "" {
		raw, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, templatePath, err)
		}
		content = string(raw)
		name = templatePath
	}

	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Builder{tmpl: tmpl, validate: newValidator()}, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	// report JSON field names so errors match the HTTP request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate normalizes rc and checks it, returning the normalized context or
// the first violation as a *domain.InputValidationError.
func (b *Builder) Validate(rc domain.RequestContext) (domain.RequestContext, error) {
	rc = rc.Normalize()
	if err := b.validate.Struct(rc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return rc, domain.NewInputValidationError(fieldName(fe), reason(fe))
		}
		return rc, fmt.Errorf("%w: %v", domain.ErrInputValidation, err)
	}
	return rc, nil
}

// Build validates rc and renders the prompt.
func (b *Builder) Build(rc domain.RequestContext) (string, error) {
	rc, err := b.Validate(rc)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, rc); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// fieldName returns the JSON path of the failing field, e.g.
// "reference_links[2]" for a bad link.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must have at most %s entries", fe.Param())
	case "url":
		return "must be an absolute URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
