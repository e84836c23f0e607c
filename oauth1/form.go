package oauth1

import (
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Schema lists the fields a form-encoded provider response must and may carry.
type Schema struct {
	Required []string
	Optional []string
}

var (
	// RequestTokenSchema is the request-token endpoint response.
	RequestTokenSchema = Schema{
		Required: []string{ParamToken, ParamTokenSecret, ParamCallbackConfirm},
	}
	// AccessTokenSchema is the access-token endpoint response.
	AccessTokenSchema = Schema{
		Required: []string{ParamToken, ParamTokenSecret},
		Optional: []string{"user_id", "screen_name", "x_auth_expires"},
	}
)

// SchemaError reports a form body that does not match its Schema.
type SchemaError struct {
	Missing    []string
	Unexpected []string
	Repeated   []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ","))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Unexpected, ","))
	}
	if len(e.Repeated) > 0 {
		parts = append(parts, "repeated "+strings.Join(e.Repeated, ","))
	}
	return "form schema mismatch: " + strings.Join(parts, "; ")
}

// ParseForm decodes a form-encoded body and checks it against schema. Fields
// outside Required and Optional, missing required fields and repeated keys all
// fail with *SchemaError.
func ParseForm(body []byte, schema Schema) (map[string]string, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, errors.Wrap(err, "parse form body")
	}

	known := map[string]bool{}
	for _, k := range schema.Required {
		known[k] = true
	}
	for _, k := range schema.Optional {
		known[k] = true
	}

	schemaErr := &SchemaError{}
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if !known[k] {
			schemaErr.Unexpected = append(schemaErr.Unexpected, k)
			continue
		}
		if len(v) > 1 {
			schemaErr.Repeated = append(schemaErr.Repeated, k)
			continue
		}
		fields[k] = v[0]
	}
	for _, k := range schema.Required {
		if _, ok := values[k]; !ok {
			schemaErr.Missing = append(schemaErr.Missing, k)
		}
	}

	if len(schemaErr.Missing)+len(schemaErr.Unexpected)+len(schemaErr.Repeated) > 0 {
		sort.Strings(schemaErr.Missing)
		sort.Strings(schemaErr.Unexpected)
		sort.Strings(schemaErr.Repeated)
		return nil, schemaErr
	}
	return fields, nil
}
