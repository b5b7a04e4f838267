package suggest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// jsonKind is the JSON type of a raw value, judged by its first byte.
type jsonKind int

const (
	jsonInvalid jsonKind = iota
	jsonNull
	jsonBool
	jsonNumber
	jsonString
	jsonArray
	jsonObject
)

func (k jsonKind) String() string {
	switch k {
	case jsonNull:
		return "null"
	case jsonBool:
		return "boolean"
	case jsonNumber:
		return "number"
	case jsonString:
		return "string"
	case jsonArray:
		return "array"
	case jsonObject:
		return "object"
	}
	return "invalid"
}

func kindOf(raw json.RawMessage) jsonKind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return jsonInvalid
	}
	switch c := raw[0]; {
	case c == 'n':
		return jsonNull
	case c == 't' || c == 'f':
		return jsonBool
	case c == '"':
		return jsonString
	case c == '[':
		return jsonArray
	case c == '{':
		return jsonObject
	case c == '-' || (c >= '0' && c <= '9'):
		return jsonNumber
	}
	return jsonInvalid
}

// shapeError describes why a payload failed the guard.
type shapeError struct {
	field string
	want  string
	got   string
}

func (e *shapeError) Error() string {
	if e.got == "" {
		return fmt.Sprintf("%s: %s", e.field, e.want)
	}
	return fmt.Sprintf("%s: want %s, got %s", e.field, e.want, e.got)
}

func decodeObject(field string, raw []byte) (map[string]json.RawMessage, error) {
	if k := kindOf(raw); k != jsonObject {
		return nil, &shapeError{field: field, want: "object", got: k.String()}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return obj, nil
}

func requireField[T any](obj map[string]json.RawMessage, name string, want jsonKind) (T, error) {
	var v T
	raw, ok := obj[name]
	if !ok {
		return v, &shapeError{field: name, want: "required"}
	}
	if k := kindOf(raw); k != want {
		return v, &shapeError{field: name, want: want.String(), got: k.String()}
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// DecodeCategorization validates a categorization object and decodes it.
// suggestedProject must be a non-empty string, confidence a number in [0,1],
// reasoning a string, and alternativeProjects an array of strings.
// shouldCreateNew and newProjectSuggestion are optional.
func DecodeCategorization(raw []byte) (Categorization, error) {
	var c Categorization

	obj, err := decodeObject("categorization", raw)
	if err != nil {
		return c, err
	}

	if c.SuggestedProject, err = requireField[string](obj, "suggestedProject", jsonString); err != nil {
		return c, err
	}
	if c.SuggestedProject == "" {
		return c, &shapeError{field: "suggestedProject", want: "non-empty"}
	}
	if c.Confidence, err = requireField[float64](obj, "confidence", jsonNumber); err != nil {
		return c, err
	}
	if math.IsNaN(c.Confidence) || c.Confidence < 0 || c.Confidence > 1 {
		return c, &shapeError{field: "confidence", want: "within [0,1]", got: fmt.Sprint(c.Confidence)}
	}
	if c.Reasoning, err = requireField[string](obj, "reasoning", jsonString); err != nil {
		return c, err
	}

	alts, err := requireField[[]json.RawMessage](obj, "alternativeProjects", jsonArray)
	if err != nil {
		return c, err
	}
	c.AlternativeProjects = make([]string, 0, len(alts))
	for i, a := range alts {
		if k := kindOf(a); k != jsonString {
			return c, &shapeError{field: fmt.Sprintf("alternativeProjects[%d]", i), want: "string", got: k.String()}
		}
		var s string
		if err := json.Unmarshal(a, &s); err != nil {
			return c, fmt.Errorf("alternativeProjects[%d]: %w", i, err)
		}
		c.AlternativeProjects = append(c.AlternativeProjects, s)
	}

	if raw, ok := obj["shouldCreateNew"]; ok && kindOf(raw) != jsonNull {
		if c.ShouldCreateNew, err = requireField[bool](obj, "shouldCreateNew", jsonBool); err != nil {
			return c, err
		}
	}
	if raw, ok := obj["newProjectSuggestion"]; ok && kindOf(raw) != jsonNull {
		np, err := decodeObject("newProjectSuggestion", raw)
		if err != nil {
			return c, err
		}
		name, err := requireField[string](np, "name", jsonString)
		if err != nil {
			return c, fmt.Errorf("newProjectSuggestion.%w", err)
		}
		desc, _ := requireField[string](np, "description", jsonString)
		c.NewProjectSuggestion = &NewProjectSuggestion{Name: name, Description: desc}
	}

	return c, nil
}

// ParseCategorizationResponse is the admission point for a 2xx body from the
// categorization endpoint. It requires {"success": true, "categorization": {...}}
// and adapts the categorization to a TaskSuggestion for title.
func ParseCategorizationResponse(body []byte, title string) (TaskSuggestion, error) {
	env, err := decodeObject("body", body)
	if err != nil {
		return TaskSuggestion{}, err
	}
	ok, err := requireField[bool](env, "success", jsonBool)
	if err != nil {
		return TaskSuggestion{}, err
	}
	if !ok {
		return TaskSuggestion{}, &shapeError{field: "success", want: "true", got: "false"}
	}
	raw, present := env["categorization"]
	if !present {
		return TaskSuggestion{}, &shapeError{field: "categorization", want: "required"}
	}
	c, err := DecodeCategorization(raw)
	if err != nil {
		return TaskSuggestion{}, err
	}
	return c.Suggestion(title), nil
}
