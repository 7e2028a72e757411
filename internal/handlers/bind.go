package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"reflect"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"
	"github.com/shopspring/decimal"

	"Marketplace/internal/services"
)

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("json")
	d.IgnoreUnknownKeys(true)
	d.ZeroEmpty(false)
	d.RegisterConverter(decimal.Decimal{}, func(s string) reflect.Value {
		v, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(v)
	})
	return d
}

var errBadBody = errors.New("invalid request body")

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// bind decodes a JSON or multipart request into dst. Multipart requests also
// return the uploaded "image" file, if any.
func bind(c *fiber.Ctx, dst any) (*multipart.FileHeader, error) {
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, errBadBody
		}
		if err := formDecoder.Decode(dst, form.Value); err != nil {
			return nil, formErrors(err)
		}
		if files := form.File["image"]; len(files) > 0 {
			return files[0], nil
		}
		return nil, nil
	}

	if len(c.Body()) == 0 {
		return nil, nil
	}
	if err := c.BodyParser(dst); err != nil {
		return nil, jsonErrors(err)
	}
	return nil, nil
}

// jsonErrors turns a mistyped JSON value into a field error; malformed JSON stays a bad body.
func jsonErrors(err error) error {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return errBadBody
	}

	label := typeErr.Field
	if i := strings.LastIndex(label, "."); i >= 0 {
		label = label[i+1:]
	}
	label = "The " + strings.ReplaceAll(label, "_", " ") + " field"

	switch typeErr.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		label += " must be a number."
	case reflect.String:
		label += " must be a string."
	case reflect.Bool:
		label += " must be true or false."
	default:
		label += " is invalid."
	}
	return services.NewValidationError(typeErr.Field, label)
}

func formErrors(err error) error {
	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return errBadBody
	}
	verr := &services.ValidationError{}
	for field := range multi {
		verr.Add(field, "The "+strings.ReplaceAll(field, "_", " ")+" field is invalid.")
	}
	return verr
}

// bindError writes the response for a bind failure.
func bindError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errBadBody) {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	return handleError(c, err, "")
}

func pageRequest(c *fiber.Ctx) services.PageRequest {
	return services.PageRequest{
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", services.DefaultPerPage),
	}
}
