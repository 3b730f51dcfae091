package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jcmexdev/nested-tictactoe/internal/pkg/serviceerror"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst and validates it. Every
// failure is a BadRequest.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return serviceerror.BadRequest("Invalid JSON body: " + err.Error())
	}
	return h.validate(dst)
}

func (h *Handler) validate(v any) error {
	err := h.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return serviceerror.BadRequest(err.Error())
	}

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s=%s", f.Field(), f.Tag(), f.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", f.Field(), f.Tag()))
	}
	return serviceerror.BadRequest(strings.Join(msgs, "; "))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
