package httpx

import (
	"encoding/json"
	"net/http/httptest"
)

func jsonDecode(rec *httptest.ResponseRecorder, v any) error {
	return json.NewDecoder(rec.Body).Decode(v)
}
