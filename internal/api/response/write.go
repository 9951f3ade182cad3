package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON response with the given status. The body is
// encoded before the header is sent, so an unencodable value turns into a
// bare 500 instead of a truncated 2xx.
func JSON(w http.ResponseWriter, status int, data any) {
	body := []byte("null")
	if data != nil {
		var err error
		body, err = json.Marshal(data)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
