package handlers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"clinic-pos/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// formReader pulls optional typed fields out of a multipart or urlencoded
// body. A field that is absent comes back nil. The first parse error sticks.
type formReader struct {
	c   *gin.Context
	err error
}

func newFormReader(c *gin.Context) *formReader {
	return &formReader{c: c}
}

func (f *formReader) raw(key string) (string, bool) {
	if f.err != nil {
		return "", false
	}
	return f.c.GetPostForm(key)
}

// Text returns the field as sent; an empty value still counts as present.
func (f *formReader) Text(key string) *string {
	v, ok := f.raw(key)
	if !ok {
		return nil
	}
	return &v
}

// The numeric readers treat an empty value as absent.

func (f *formReader) Decimal(key string) *decimal.Decimal {
	v, ok := f.raw(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		f.err = apperror.Validation("%s must be a number", key)
		return nil
	}
	return &d
}

func (f *formReader) Int(key string) *int {
	v, ok := f.raw(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		f.err = apperror.Validation("%s must be a whole number", key)
		return nil
	}
	return &n
}

func (f *formReader) Uint(key string) *uint {
	v, ok := f.raw(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		f.err = apperror.Validation("%s must be a valid id", key)
		return nil
	}
	id := uint(n)
	return &id
}

func (f *formReader) Bool(key string) *bool {
	v, ok := f.raw(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		f.err = apperror.Validation("%s must be true or false", key)
		return nil
	}
	return &b
}

// Time accepts a date (local midnight) or a full RFC 3339 timestamp.
func (f *formReader) Time(key string) *time.Time {
	v, ok := f.raw(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	v = strings.TrimSpace(v)
	if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
		return &t
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		f.err = apperror.Validation("%s must be a date (YYYY-MM-DD)", key)
		return nil
	}
	return &t
}

// StringList decodes a JSON array of strings, e.g. existingImages.
func (f *formReader) StringList(key string) []string {
	v, ok := f.raw(key)
	if !ok {
		return nil
	}
	list := []string{}
	if strings.TrimSpace(v) == "" {
		return list
	}
	if err := json.Unmarshal([]byte(v), &list); err != nil {
		f.err = apperror.Validation("%s must be a JSON array of paths", key)
		return nil
	}
	return list
}

func (f *formReader) Err() error {
	return f.err
}
