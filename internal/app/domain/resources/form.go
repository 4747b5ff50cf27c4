package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/validation"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

const (
	maxUploadMemory = 32 << 20
	imageURLField   = "image_url"
	imageFileField  = "image"
)

// Submission is a parsed modal form: plain values plus any uploaded files.
type Submission struct {
	Values map[string]string
	Files  map[string]*multipart.FileHeader
}

// ParseSubmission reads the inputs of def's form from the request body.
func ParseSubmission(c *gin.Context, def Definition, editing bool) (Submission, error) {
	sub := Submission{Values: map[string]string{}, Files: map[string]*multipart.FileHeader{}}

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
			return sub, fmt.Errorf("failed to parse multipart form: %w", err)
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return sub, fmt.Errorf("failed to parse form: %w", err)
	}

	for _, f := range def.FormFields(editing) {
		if f.Kind == views.FieldFile {
			if fh, err := c.FormFile(f.Name); err == nil && fh.Size > 0 {
				sub.Files[f.Name] = fh
			} else if err != nil && !errors.Is(err, http.ErrMissingFile) {
				return sub, fmt.Errorf("failed to read file %s: %w", f.Name, err)
			}
			continue
		}
		vals := c.Request.PostForm[f.Name]
		if len(vals) == 0 {
			continue
		}
		// checkboxes post a hidden "0" followed by "1" when ticked
		sub.Values[f.Name] = strings.TrimSpace(vals[len(vals)-1])
	}
	return sub, nil
}

// HasFiles reports whether any file input carries a file.
func (s Submission) HasFiles() bool {
	return len(s.Files) > 0
}

// Validate checks required inputs before anything is sent to the backend.
func Validate(def Definition, sub Submission, editing bool) error {
	fields := validation.FieldErrors{}
	for _, f := range def.FormFields(editing) {
		if !f.Required {
			continue
		}
		if f.Kind == views.FieldFile {
			if editing {
				continue
			}
			name := ""
			if fh := sub.Files[f.Name]; fh != nil {
				name = fh.Filename
			}
			validation.Required(fields, f.Name, f.Label, name)
			continue
		}
		validation.Required(fields, f.Name, f.Label, sub.Values[f.Name])
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// ResolveImageInputs keeps exactly one of image_url and image: an uploaded file wins and
// the URL is dropped; a URL without a file is sent alone. An empty URL is never sent.
func ResolveImageInputs(sub Submission) Submission {
	if _, ok := sub.Files[imageFileField]; ok {
		delete(sub.Values, imageURLField)
		return sub
	}
	if strings.TrimSpace(sub.Values[imageURLField]) == "" {
		delete(sub.Values, imageURLField)
	}
	return sub
}

// JSONPayload converts the submission into the JSON body of a create/update call.
func JSONPayload(def Definition, sub Submission, editing bool) map[string]any {
	payload := make(map[string]any, len(sub.Values))
	for _, f := range def.FormFields(editing) {
		v, ok := sub.Values[f.Name]
		if !ok {
			continue
		}
		switch f.Kind {
		case views.FieldCheckbox:
			payload[f.Name] = truthy(v)
		case views.FieldNumber:
			if v == "" {
				payload[f.Name] = nil
			} else if _, err := strconv.ParseFloat(v, 64); err == nil {
				payload[f.Name] = json.Number(v)
			} else {
				payload[f.Name] = v
			}
		case views.FieldSelect, views.FieldDate:
			if v == "" {
				payload[f.Name] = nil
			} else {
				payload[f.Name] = v
			}
		default:
			payload[f.Name] = v
		}
	}
	return payload
}

// MultipartBody converts the submission into a multipart body. The returned closer must be
// called once the request is sent.
func MultipartBody(def Definition, sub Submission, editing bool) (backend.Multipart, io.Closer, error) {
	form := backend.Multipart{Fields: map[string]string{}}
	for _, f := range def.FormFields(editing) {
		if f.Kind == views.FieldFile {
			continue
		}
		v, ok := sub.Values[f.Name]
		if !ok {
			continue
		}
		if f.Kind == views.FieldCheckbox {
			if truthy(v) {
				v = "1"
			} else {
				v = "0"
			}
		}
		form.Fields[f.Name] = v
	}

	var files multiCloser
	for name, fh := range sub.Files {
		fd, err := fh.Open()
		if err != nil {
			_ = files.Close()
			return backend.Multipart{}, nil, fmt.Errorf("failed to open upload %s: %w", name, err)
		}
		files = append(files, fd)
		form.Files = append(form.Files, backend.FilePart{
			Field:       name,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     fd,
		})
	}
	return form, files, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
