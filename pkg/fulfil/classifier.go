package fulfil

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const userErrorType = "UserError"

// errorShape inspects a decoded error body and reports whether it matched.
type errorShape func(body map[string]any) (ErrorEntry, bool)

// errorShapes are tried in order; the first match wins.
var errorShapes = []errorShape{
	userErrorShape,
	authorizationErrorShape,
}

// Classify turns err into a recovered error entry. Bodies of user errors and
// authorization errors keep their message; anything else, including bodies
// that are not JSON, becomes a system error coded with the HTTP status.
func Classify(err error) ErrorEntry {
	if err == nil {
		return ErrorEntry{Kind: ErrorKindSystem}
	}

	transportErr, ok := AsTransportError(err)
	if !ok {
		return ErrorEntry{Kind: ErrorKindSystem, Message: err.Error()}
	}

	if body, ok := decodeErrorBody(transportErr.Body); ok {
		for _, shape := range errorShapes {
			if entry, matched := shape(body); matched {
				return entry
			}
		}
	}

	return ErrorEntry{
		Code:    strconv.Itoa(transportErr.StatusCode),
		Kind:    ErrorKindSystem,
		Message: err.Error(),
	}
}

func decodeErrorBody(raw []byte) (map[string]any, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var body map[string]any

	err := decoder.Decode(&body)
	if err != nil {
		return nil, false
	}

	return body, true
}

// userErrorShape matches {"type": "UserError", "code": ..., "message": ...}.
func userErrorShape(body map[string]any) (ErrorEntry, bool) {
	if kind, _ := body["type"].(string); kind != userErrorType {
		return ErrorEntry{}, false
	}

	message, _ := body["message"].(string)

	return ErrorEntry{
		Code:    scalarString(body["code"]),
		Kind:    ErrorKindUser,
		Message: message,
	}, true
}

// authorizationErrorShape matches {"code": int, "name": string, "description": string}.
func authorizationErrorShape(body map[string]any) (ErrorEntry, bool) {
	code, ok := body["code"].(json.Number)
	if !ok {
		return ErrorEntry{}, false
	}

	if _, err := code.Int64(); err != nil {
		return ErrorEntry{}, false
	}

	if _, ok := body["name"].(string); !ok {
		return ErrorEntry{}, false
	}

	description, ok := body["description"].(string)
	if !ok {
		return ErrorEntry{}, false
	}

	return ErrorEntry{
		Code:    code.String(),
		Kind:    ErrorKindAuthorization,
		Message: description,
	}, true
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(raw)
	}
}
