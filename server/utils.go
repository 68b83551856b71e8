package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"microblog/apperrors"
	"microblog/utils"
)

func sendError(w http.ResponseWriter, errorCode int, message string) {
	log.Info(message)
	w.WriteHeader(errorCode)
	resp := map[string]string{
		"error": message,
	}
	jsonResp := utils.ToJson(resp)
	w.Write(jsonResp)
}

func sendAppError(w http.ResponseWriter, err error) {
	sendError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case apperrors.Is(err, apperrors.NotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.Validation):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.IndexUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJson(r *http.Request, dest any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

func getQueryItem(values url.Values, key string) *string {
	value := values[key]
	result := ""
	if len(value) == 1 {
		result = value[0]
	}
	return &result
}
