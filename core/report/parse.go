package report

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidResponse is returned when the AI output is not the requested JSON document.
var ErrInvalidResponse = errors.New("invalid JSON response from AI")

// fields some models wrap their output in
var wrapperFields = []string{"response", "text", "output", "result"}

// decode extracts the JSON document from raw and unmarshals it into v.
// raw may be the document itself, the document inside a markdown code fence,
// or an object holding the document in one of wrapperFields.
// Every key in required must be present.
func decode(raw string, required []string, v interface{}) error {
	obj, err := extract(raw, required, 1)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(obj, v); err != nil {
		return errors.Wrap(ErrInvalidResponse, err.Error())
	}
	return nil
}

// extract returns the JSON object holding the required keys. depth bounds wrapper unwrapping.
func extract(raw string, required []string, depth int) (json.RawMessage, error) {
	doc := bytes.TrimSpace([]byte(stripFences(raw)))
	if len(doc) == 0 || doc[0] != '{' {
		return nil, errors.Wrap(ErrInvalidResponse, "not a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, errors.Wrap(ErrInvalidResponse, err.Error())
	}

	missing := missingKeys(fields, required)
	if len(missing) == 0 {
		return doc, nil
	}

	if depth > 0 {
		for _, name := range wrapperFields {
			inner, ok := fields[name]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(inner, &s); err == nil {
				return extract(s, required, depth-1)
			}
			return extract(string(inner), required, depth-1)
		}
	}
	return nil, errors.Wrapf(ErrInvalidResponse, "missing keys: %s", strings.Join(missing, ", "))
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func missingKeys(fields map[string]json.RawMessage, required []string) []string {
	var missing []string
	for _, k := range required {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
