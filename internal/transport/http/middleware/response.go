package middleware

import (
	"encoding/json"
	"net/http"
)

// Machine-readable codes sent alongside middleware rejections. They match
// the codes the handlers use so clients can branch on one field.
const (
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeRateLimited  = "rate_limited"
)

type rejection struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func reject(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rejection{Error: msg, Code: code})
}
