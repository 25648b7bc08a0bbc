package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/vyrodovalexey/shopapi/internal/model"
)

// Validation issue types.
const (
	issueMissing     = "missing"
	issueJSONInvalid = "json_invalid"
	issueType        = "type_error"
	issueInt         = "int_parsing"
	issueFloat       = "float_parsing"
	issueBool        = "bool_parsing"
	issueValue       = "value_error"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// validationError collects the issues that make a request unprocessable.
type validationError struct {
	issues []model.ValidationIssue
}

func (e *validationError) Error() string {
	parts := make([]string, 0, len(e.issues))
	for _, issue := range e.issues {
		parts = append(parts, strings.Join(issue.Loc, ".")+": "+issue.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(msg, issueType string, loc ...string) *validationError {
	return &validationError{
		issues: []model.ValidationIssue{{Loc: loc, Msg: msg, Type: issueType}},
	}
}

// itemRequest is the wire form of an item draft. Pointers tell absent
// fields apart from zero values so defaults can be applied.
type itemRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	IsAvailable *bool    `json:"is_available"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"image_url"`
	StockCount  *int     `json:"stock_count"`
	Tags        []string `json:"tags"`
}

// toDraft checks required fields and applies defaults.
func (r *itemRequest) toDraft() (*model.ItemDraft, error) {
	var issues []model.ValidationIssue
	if r.Name == nil {
		issues = append(issues, model.ValidationIssue{Loc: []string{"body", "name"}, Msg: "Field required", Type: issueMissing})
	}
	if r.Price == nil {
		issues = append(issues, model.ValidationIssue{Loc: []string{"body", "price"}, Msg: "Field required", Type: issueMissing})
	}
	if len(issues) > 0 {
		return nil, &validationError{issues: issues}
	}

	draft := &model.ItemDraft{
		Name:        *r.Name,
		Description: r.Description,
		Price:       *r.Price,
		IsAvailable: true,
		Category:    model.DefaultCategory,
		ImageURL:    r.ImageURL,
		Tags:        r.Tags,
	}
	if r.IsAvailable != nil {
		draft.IsAvailable = *r.IsAvailable
	}
	if r.Category != nil {
		draft.Category = *r.Category
	}
	if r.StockCount != nil {
		draft.StockCount = *r.StockCount
	}
	if draft.Tags == nil {
		draft.Tags = []string{}
	}

	return draft, nil
}

// decodeItemDraft reads an item draft from the request body.
func decodeItemDraft(r *http.Request) (*model.ItemDraft, error) {
	var req itemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	return req.toDraft()
}

// decodeJSONBody decodes a JSON object, translating decoder failures into
// validation errors.
func decodeJSONBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return newValidationError("Field required", issueMissing, "body")
		case errors.As(err, &typeErr):
			loc := []string{"body"}
			if typeErr.Field != "" {
				loc = append(loc, strings.Split(typeErr.Field, ".")...)
			}
			return newValidationError(
				fmt.Sprintf("Input should be a valid %s", jsonTypeName(typeErr.Type)), issueType, loc...,
			)
		default:
			return newValidationError("JSON decode error: "+err.Error(), issueJSONInvalid, "body")
		}
	}

	// The body must hold exactly one JSON value.
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return newValidationError("JSON decode error: unexpected data after the request body", issueJSONInvalid, "body")
	}
	return nil
}

// jsonTypeName names the expected JSON type for a Go destination type.
func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map, reflect.Struct:
		return "dictionary"
	default:
		return "value"
	}
}

// pathInt parses an integer path variable.
func pathInt(r *http.Request, name, loc string) (int, error) {
	raw := mux.Vars(r)[name]
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newValidationError(
			"Input should be a valid integer, unable to parse string as an integer", issueInt, "path", loc,
		)
	}
	return value, nil
}

// parseListQuery builds a ListQuery from GET /items query parameters.
func parseListQuery(values url.Values) (model.ListQuery, error) {
	query := model.ListQuery{
		Category: values.Get("category"),
		SortBy:   model.ParseSortField(values.Get("sort_by")),
		Order:    model.ParseSortOrder(values.Get("order")),
	}

	var issues []model.ValidationIssue

	minPrice, err := optionalFloat(values, "min_price")
	if err != nil {
		issues = append(issues, err.issues...)
	}
	query.MinPrice = minPrice

	maxPrice, err := optionalFloat(values, "max_price")
	if err != nil {
		issues = append(issues, err.issues...)
	}
	query.MaxPrice = maxPrice

	if raw := values.Get("available_only"); raw != "" {
		availableOnly, ok := parseQueryBool(raw)
		if !ok {
			issues = append(issues, model.ValidationIssue{
				Loc:  []string{"query", "available_only"},
				Msg:  "Input should be a valid boolean, unable to interpret input",
				Type: issueBool,
			})
		}
		query.AvailableOnly = availableOnly
	}

	if len(issues) > 0 {
		return model.ListQuery{}, &validationError{issues: issues}
	}

	return query, nil
}

// optionalFloat returns nil when the parameter is absent or empty.
func optionalFloat(values url.Values, name string) (*float64, *validationError) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, newValidationError(
			"Input should be a valid number, unable to parse string as a number", issueFloat, "query", name,
		)
	}
	return &value, nil
}

// parseQueryBool accepts the spellings clients commonly send for booleans.
func parseQueryBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true, true
	case "0", "false", "f", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// stockRequest is the JSON body accepted by the stock endpoint when the
// stock_count query parameter is absent.
type stockRequest struct {
	StockCount *int `json:"stock_count"`
}

// parseStockCount reads the new stock count from the query string, falling
// back to a JSON body.
func parseStockCount(r *http.Request) (int, error) {
	if raw, ok := r.URL.Query()["stock_count"]; ok && len(raw) > 0 {
		value, err := strconv.Atoi(raw[0])
		if err != nil {
			return 0, newValidationError(
				"Input should be a valid integer, unable to parse string as an integer", issueInt, "query", "stock_count",
			)
		}
		return value, nil
	}

	if r.Body == nil || r.ContentLength == 0 {
		return 0, newValidationError("Field required", issueMissing, "query", "stock_count")
	}

	var req stockRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return 0, err
	}
	if req.StockCount == nil {
		return 0, newValidationError("Field required", issueMissing, "query", "stock_count")
	}

	return *req.StockCount, nil
}

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// strictDraftIssues converts validator failures into validation issues.
func strictDraftIssues(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newValidationError(err.Error(), issueValue, "body")
	}

	issues := make([]model.ValidationIssue, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		issues = append(issues, model.ValidationIssue{
			Loc:  []string{"body", fieldErr.Field()},
			Msg:  "failed on rule: " + fieldErr.Tag(),
			Type: issueValue,
		})
	}
	return &validationError{issues: issues}
}
