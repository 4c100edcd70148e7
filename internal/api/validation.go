package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"barguru/internal/cocktail"
)

var registerOnce sync.Once

// RegisterValidators installs the custom validation tags and reports fields
// by their JSON names. It is safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected validator engine")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err = v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			return
		}
		err = v.RegisterValidation("notother", notOtherIngredient)
	})
	return err
}

// notOtherIngredient rejects the catalogue's "other" placeholder, which
// stands for a custom ingredient the guest has not described yet.
func notOtherIngredient(fl validator.FieldLevel) bool {
	return !strings.EqualFold(strings.TrimSpace(fl.Field().String()), cocktail.OtherIngredient)
}

// Issue describes one invalid field in a request body.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// bindJSON decodes and validates the request body. On failure it writes a
// 400 response and returns false: invalidMessage with field issues for
// validation errors, a generic message for unreadable bodies.
func bindJSON(c *gin.Context, obj any, invalidMessage string) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidMessage, "details": validationIssues(verrs)})
	case errors.As(err, &typeErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidMessage, "details": []Issue{{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("expected %s, received %s", typeErr.Type.Kind(), typeErr.Value),
		}}})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body."})
	}
	return false
}

func validationIssues(errs validator.ValidationErrors) []Issue {
	issues := make([]Issue, 0, len(errs))
	for _, fe := range errs {
		issues = append(issues, Issue{Path: issuePath(fe.Namespace()), Message: issueMessage(fe)})
	}
	return issues
}

// issuePath drops the root struct name from a validator namespace.
func issuePath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "notother":
		return "describe the ingredient you want to feature"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
