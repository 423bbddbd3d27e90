package api

import (
	"encoding/json"
	"net/http"

	stderrors "lifesure/internal/common/errors"
)

func stringField(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return stderrors.NewValidationFailedError("request body is not valid JSON", nil)
	}
	return nil
}
