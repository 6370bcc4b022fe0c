package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"
)

// maxJSONBody bounds JSON request bodies of the settings endpoints.
const maxJSONBody = 64 << 10

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeBody writes an asset body with an explicit Content-Length.
func writeBody(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// setCacheHeaders marks a response publicly cacheable for maxAge and sets
// an explicit Expires timestamp.
func setCacheHeaders(w http.ResponseWriter, maxAge time.Duration, expires time.Time) {
	h := w.Header()
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	h.Set("Expires", expires.UTC().Format(http.TimeFormat))
	h.Set("Pragma", "cache")
}

// readParams reads string parameters from a JSON object body or, for any
// other content type, from the form and query values.
func readParams(r *http.Request, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		for _, k := range keys {
			out[k] = r.FormValue(k)
		}
		return out, nil
	}

	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	if err := dec.Decode(&body); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	for _, k := range keys {
		switch v := body[k].(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}
