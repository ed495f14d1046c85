package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/vacek-detailing/studio-api/internal/common"
)

// BodyLimit caps request payload size. Quote selections and catalog payloads
// are small; anything large is abuse or a bug.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized requests with 413. It buffers the body so the
// check works even when Content-Length is absent, then hands the handler a
// replayable reader.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength != -1 && r.ContentLength > b.Max {
			tooLarge(w)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, b.Max+1))
		_ = r.Body.Close()
		switch {
		case err != nil && !errors.Is(err, io.EOF):
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
			return
		case int64(len(body)) > b.Max:
			tooLarge(w)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, common.CodeValidation, "request entity too large", nil)
}
