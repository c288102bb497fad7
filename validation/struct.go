package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report configuration keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"mapstructure", "yaml"} {
			switch name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name {
			case "-":
				return ""
			case "":
			default:
				return name
			}
		}
		return strings.ToLower(f.Name)
	})
	_ = v.RegisterValidation("media_uri", mediaURI)
	return v
})

// Validate checks the validate tags of s, a struct or pointer to one. The
// error is an INVALID_INPUT AppError listing every failing field by its
// configuration path.
func Validate(s any) error {
	err := structValidator().Struct(s)
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		if err != nil {
			return New().AddError("", err.Error()).Err()
		}
		return nil
	}

	v := New()
	for _, fe := range fieldErrs {
		v.AddError(path(fe), message(fe))
	}
	return v.Err()
}

// path drops the root type name from the namespace: Config.playback.uri
// becomes playback.uri.
func path(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}
