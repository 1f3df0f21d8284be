package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/fitgenie-relay/pkg/textx"
)

// FlexString accepts a JSON string, number or boolean and keeps its text
// form, so {"message": 42} reads as "42". Falsy values (null, false, 0)
// decode to "" and count as missing.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = FlexString(t)
	case float64:
		if t == 0 {
			*f = ""
			return nil
		}
		*f = FlexString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		if !t {
			*f = ""
			return nil
		}
		*f = FlexString(strconv.FormatBool(t))
	default:
		// objects and arrays carry no usable text
		*f = ""
	}
	return nil
}

// String returns the text with control characters stripped and spaces trimmed.
func (f FlexString) String() string { return textx.SanitizeText(string(f)) }

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New()
		vld.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return vld
}

// decodeJSON reads a capped JSON body into dst and validates it. It writes
// the error response itself and reports whether the handler may continue.
// An empty body is treated as {}.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeMessage(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge, "")
			return false
		}
		writeMessage(w, http.StatusBadRequest, msgInvalidJSON, "")
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, msgValidation, validationDetail(err))
		return false
	}
	return true
}

// validationDetail renders "field:tag" pairs in a stable order.
func validationDetail(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ""
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fe.Field()+":"+fe.Tag())
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
