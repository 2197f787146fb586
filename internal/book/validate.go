package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"bookcatalog/internal/httpx"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError lists every field that failed to validate. It is reported
// to clients as a 422.
type ValidationError struct {
	Details []httpx.ErrorDetail
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, strings.Join(d.Loc, ".")+": "+d.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Draft is an Input whose fields may be absent. Pointers tell a missing
// field apart from a zero value.
type Draft struct {
	Title  *string  `json:"title" yaml:"title" validate:"required"`
	Author *string  `json:"author" yaml:"author" validate:"required"`
	Genre  *string  `json:"genre" yaml:"genre" validate:"required"`
	Year   *int64   `json:"year" yaml:"year" validate:"required"`
	Rating *float64 `json:"rating" yaml:"rating" validate:"required"`
}

// Input returns the complete record, or a *ValidationError listing every
// absent field under loc.
func (d Draft) Input(loc string) (Input, error) {
	details, err := missingFields(d, loc, nil)
	if err != nil {
		return Input{}, err
	}
	if len(details) > 0 {
		return Input{}, &ValidationError{Details: details}
	}
	return Input{
		Title:  *d.Title,
		Author: *d.Author,
		Genre:  *d.Genre,
		Year:   *d.Year,
		Rating: *d.Rating,
	}, nil
}

func missingFields(d Draft, loc string, skip map[string]bool) ([]httpx.ErrorDetail, error) {
	err := validate.Struct(d)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	var details []httpx.ErrorDetail
	for _, fe := range verrs {
		if skip[fe.Field()] {
			continue
		}
		details = append(details, httpx.ErrorDetail{
			Loc:  []string{loc, fe.Field()},
			Msg:  "field required",
			Type: "value_error.missing",
		})
	}
	return details, nil
}

var fieldTypeErrors = map[string]httpx.ErrorDetail{
	"title":  {Msg: "str type expected", Type: "type_error.str"},
	"author": {Msg: "str type expected", Type: "type_error.str"},
	"genre":  {Msg: "str type expected", Type: "type_error.str"},
	"year":   {Msg: "value is not a valid integer", Type: "type_error.integer"},
	"rating": {Msg: "value is not a valid float", Type: "type_error.float"},
}

func bodyError(msg, typ string) *ValidationError {
	return &ValidationError{Details: []httpx.ErrorDetail{{Loc: []string{"body"}, Msg: msg, Type: typ}}}
}

// DecodeInput reads a create or update body holding exactly one JSON object.
// Every mistyped or absent field is reported in a single *ValidationError;
// read failures such as *http.MaxBytesError are returned as is.
func DecodeInput(body io.Reader) (Input, error) {
	dec := json.NewDecoder(body)

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return Input{}, decodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return Input{}, bodyError("JSON decode error", "value_error.jsondecode")
		}
		return Input{}, decodeError(err)
	}
	if fields == nil {
		return Input{}, bodyError("field required", "value_error.missing")
	}

	var d Draft
	var details []httpx.ErrorDetail
	mistyped := map[string]bool{}
	for _, f := range []struct {
		name string
		dst  any
	}{
		{"title", &d.Title},
		{"author", &d.Author},
		{"genre", &d.Genre},
		{"year", &d.Year},
		{"rating", &d.Rating},
	} {
		raw, ok := fields[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			detail := fieldTypeErrors[f.name]
			detail.Loc = []string{"body", f.name}
			details = append(details, detail)
			mistyped[f.name] = true
		}
	}

	missing, err := missingFields(d, "body", mistyped)
	if err != nil {
		return Input{}, err
	}
	details = append(details, missing...)
	if len(details) > 0 {
		return Input{}, &ValidationError{Details: details}
	}
	return d.Input("body")
}

// decodeError maps a decoder failure to the 422 body it stands for. Errors
// that are not about the JSON itself pass through.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return bodyError("value is not a valid dict", "type_error.dict")
	case errors.Is(err, io.EOF):
		return bodyError("field required", "value_error.missing")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return bodyError("JSON decode error", "value_error.jsondecode")
	default:
		return err
	}
}

// ParseID validates the book_id path segment.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ValidationError{Details: []httpx.ErrorDetail{{
			Loc:  []string{"path", "book_id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}}}
	}
	return id, nil
}

// ParseSearch returns the required search term.
func ParseSearch(q url.Values) (string, error) {
	if !q.Has("search") {
		return "", &ValidationError{Details: []httpx.ErrorDetail{{
			Loc:  []string{"query", "search"},
			Msg:  "field required",
			Type: "value_error.missing",
		}}}
	}
	return q.Get("search"), nil
}

// ParseYearRange reads the optional min and max query parameters.
func ParseYearRange(q url.Values) (YearRange, error) {
	var years YearRange
	var details []httpx.ErrorDetail

	for _, bound := range []struct {
		key string
		dst **int64
	}{
		{"min", &years.Min},
		{"max", &years.Max},
	} {
		if !q.Has(bound.key) {
			continue
		}
		v, err := strconv.ParseInt(q.Get(bound.key), 10, 64)
		if err != nil {
			details = append(details, httpx.ErrorDetail{
				Loc:  []string{"query", bound.key},
				Msg:  "value is not a valid integer",
				Type: "type_error.integer",
			})
			continue
		}
		*bound.dst = &v
	}

	if len(details) > 0 {
		return YearRange{}, &ValidationError{Details: details}
	}
	return years, nil
}

func (y YearRange) String() string {
	format := func(p *int64) string {
		if p == nil {
			return "*"
		}
		return strconv.FormatInt(*p, 10)
	}
	return fmt.Sprintf("[%s, %s]", format(y.Min), format(y.Max))
}
