package api

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindPatch decodes a PATCH body into obj and reports which top-level keys
// were actually present, so a field that was not supplied can be told apart
// from one explicitly set to null. Validation tags on obj are enforced.
func bindPatch(c *gin.Context, obj any) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, obj); err != nil {
		return nil, err
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return nil, err
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &present); err != nil {
		return nil, err
	}
	return present, nil
}
