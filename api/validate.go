package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("segment", func(fl validator.FieldLevel) bool {
			return IsSegment(fl.Field().String())
		})
		_ = validate.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
			return IsIdent(fl.Field().String())
		})
	})
	return validate
}

// IsSegment reports whether name can be used as a single path element.
func IsSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// IsIdent reports whether name is a valid variable name: a letter or
// underscore followed by letters, digits or underscores.
func IsIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// Validate checks the semantic constraints of every declaration in d.
// Grammar is the loader's concern; this only covers names and loop headers.
func Validate(d *Description) error {
	if d == nil {
		return &Error{Op: "validate", Kind: KindInvalidDescription, Err: errors.New("nil description")}
	}
	return validateDecls(d.Decls, "")
}

func validateDecls(decls []Declaration, parent string) error {
	v := validatorInstance()
	for i, decl := range decls {
		where := fmt.Sprintf("%s[%d]", parent, i)
		if decl == nil {
			return &Error{Op: "validate", Kind: KindInvalidDescription, Decl: where, Err: errors.New("nil declaration")}
		}
		if err := v.Struct(decl); err != nil {
			return &Error{Op: "validate", Kind: KindInvalidDescription, Decl: decl.Label(), Err: describeValidation(err)}
		}
		switch d := decl.(type) {
		case *Folder:
			if err := validateDecls(d.Children, where); err != nil {
				return err
			}
		case *Loop:
			if err := validateDecls(d.Body, where); err != nil {
				return err
			}
		case *File, *Output, *Input:
		default:
			return &Error{Op: "validate", Kind: KindInvalidDescription, Decl: where, Err: fmt.Errorf("unknown declaration %T", decl)}
		}
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", strings.ToLower(fe.Field()))
	case "segment":
		return fmt.Errorf("%s %q must be a single path element", strings.ToLower(fe.Field()), fe.Value())
	case "ident":
		return fmt.Errorf("%s %q is not a valid identifier", strings.ToLower(fe.Field()), fe.Value())
	default:
		return fmt.Errorf("%s failed %q check (value %v)", strings.ToLower(fe.Field()), fe.Tag(), fe.Value())
	}
}
