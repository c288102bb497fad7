package validation

import (
	"net/url"

	"github.com/go-playground/validator/v10"
)

// IsMediaURI reports whether s is an absolute URI a source can open, such
// as file:///media/sintel.webm or rtsp://camera/stream. file URIs need a
// path.
func IsMediaURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Scheme != "file" || u.Path != ""
}

// mediaURI backs the media_uri tag.
func mediaURI(fl validator.FieldLevel) bool {
	return IsMediaURI(fl.Field().String())
}

// messages maps a failed tag to the text shown after the field path.
// Tags with a parameter get it appended.
var messages = map[string]string{
	"required":         "is required",
	"required_without": "is required",
	"min":              "must have at least",
	"gte":              "must be at least",
	"lte":              "must be at most",
	"oneof":            "must be one of:",
	"nefield":          "must differ from",
	"media_uri":        "must be an absolute media URI",
}

func message(fe validator.FieldError) string {
	msg, ok := messages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if fe.Param() != "" && fe.Tag() != "required_without" {
		msg += " " + fe.Param()
	}
	return msg
}
