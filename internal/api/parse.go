package api

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/chatwidget/internal/errors"
)

// resultPath is the field of the response body holding the reply text
const resultPath = "result"

// ParseResult extracts the reply text from a chat response body.
//
// An absent or falsy result (null, false, "", 0) yields "" and no error.
// A body that is not JSON, or a truthy result that is not a string, is a ParseError.
func ParseResult(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}

	result := gjson.GetBytes(body, resultPath)
	if !truthy(result) {
		return "", nil
	}

	if result.Type != gjson.String {
		return "", apierrors.NewParseError(fmt.Sprintf("expected string, got %s", result.Type), resultPath)
	}

	return result.Str, nil
}

// truthy follows JavaScript truthiness for a decoded JSON value
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0 && !math.IsNaN(r.Num)
	default:
		return true
	}
}
