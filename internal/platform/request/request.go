// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction, body decoding
(JSON with a form-encoded fallback), client IP resolution and access to the
authenticated session.
*/
package requestutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/session"
	"github.com/taibuivan/staffdesk/internal/platform/validate"
)

// MaxBodyBytes caps decoded request bodies.
const MaxBodyBytes = 1 << 20

// # Body Decoding

/*
DecodeBody decodes the request body into target.

JSON is the default. Form-encoded bodies (application/x-www-form-urlencoded or
multipart/form-data) are mapped onto target's string, bool and int fields using
their json tag names.

Parameters:
  - request: *http.Request
  - target: pointer to the destination struct

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeBody(request *http.Request, target any) error {
	if isForm(request) {
		if err := parseForm(request); err != nil {
			return validate.ErrInvalidJSON
		}
		return decodeForm(request, target)
	}

	body, err := readBody(request)
	if err != nil {
		return validate.ErrInvalidJSON
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
BodyField returns one top-level string field of the body without consuming it.

The body is buffered and restored so the handler can still decode it.
*/
func BodyField(request *http.Request, name string) string {
	if isForm(request) {
		if err := parseForm(request); err != nil {
			return ""
		}
		return request.PostFormValue(name)
	}

	body, err := readBody(request)
	if err != nil || len(body) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(fields[name], &value); err != nil {
		return ""
	}
	return value
}

func isForm(request *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

func parseForm(request *http.Request) error {
	if strings.HasPrefix(request.Header.Get("Content-Type"), "multipart/") {
		return request.ParseMultipartForm(MaxBodyBytes)
	}
	return request.ParseForm()
}

// readBody reads the whole body once and rewinds it for later readers.
func readBody(request *http.Request) ([]byte, error) {
	if request.Body == nil || request.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(request.Body, MaxBodyBytes+1))
	_ = request.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodyBytes {
		return nil, apperr.BadRequest("Request body too large")
	}
	request.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// decodeForm copies form values onto the json-tagged fields of target.
func decodeForm(request *http.Request, target any) error {
	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return validate.ErrInvalidJSON
	}
	structValue := value.Elem()
	structType := structValue.Type()

	for i := range structType.NumField() {
		field := structType.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		raw, present := request.PostForm[name]
		if !present || len(raw) == 0 {
			continue
		}

		destination := structValue.Field(i)
		switch destination.Kind() {
		case reflect.String:
			destination.SetString(raw[0])
		case reflect.Bool:
			parsed, err := strconv.ParseBool(raw[0])
			if err != nil {
				parsed = raw[0] == "on"
			}
			destination.SetBool(parsed)
		case reflect.Int, reflect.Int64, reflect.Int32:
			parsed, err := strconv.ParseInt(raw[0], 10, 64)
			if err != nil {
				return validate.ErrInvalidJSON
			}
			destination.SetInt(parsed)
		}
	}
	return nil
}

// # Router Parameters

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// # Identity

/*
Session returns the authenticated session, or nil for anonymous requests.
*/
func Session(request *http.Request) *session.Session {
	return ctxutil.GetSession(request.Context())
}

/*
RequiredSession ensures the request is authenticated and returns its session.

Returns:
  - *session.Session: the authenticated session
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredSession(request *http.Request) (*session.Session, error) {
	current := ctxutil.GetSession(request.Context())
	if current == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return current, nil
}
