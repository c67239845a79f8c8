package http

import (
	"encoding/json"
	"net/http"
)

// internalErrorBody is sent for every unexpected failure.
const internalErrorBody = `{"message":"internal error"}`

// messageResponse is the body of every non-data reply.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON encodes v before touching the response, so a value that cannot
// be encoded becomes a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		internalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func internalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(internalErrorBody + "\n"))
}
