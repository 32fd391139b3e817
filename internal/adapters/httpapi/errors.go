package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/zamalek-residents/member-registry/internal/app/auth"
	"github.com/zamalek-residents/member-registry/internal/app/members"
)

const (
	msgInvalidBody      = "البيانات غير صالحة"
	msgPageNotFound     = "الصفحة غير موجودة"
	msgMethodNotAllowed = "الطريقة غير مسموحة"
	msgServer           = "خطأ في الخادم"
	msgFileNotFound     = "الملف غير موجود"
)

// envelope is the body of every API response.
type envelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Data     any    `json:"data,omitempty"`
	Count    *int   `json:"count,omitempty"`
	Username string `json:"username,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeAppError maps application errors onto the envelope. Anything that is
// not an application error is a 500 with a generic message.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if ae := (*members.Error)(nil); errors.As(err, &ae) {
		if ae.Status >= http.StatusInternalServerError {
			s.log.ErrorContext(r.Context(), "member storage failure",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Any("error", ae.Err),
			)
		}
		writeFailure(w, ae.Status, ae.Message)
		return
	}
	if ae := (*auth.Error)(nil); errors.As(err, &ae) {
		writeFailure(w, ae.Status, ae.Message)
		return
	}

	s.log.ErrorContext(r.Context(), "unhandled error",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	)
	writeFailure(w, http.StatusInternalServerError, msgServer)
}

// outcome labels a member operation for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if ae := (*members.Error)(nil); errors.As(err, &ae) {
		switch ae.Code {
		case members.CodeValidation:
			return "invalid"
		case members.CodeMembershipNumberTaken:
			return "conflict"
		case members.CodeMemberNotFound:
			return "not_found"
		}
	}
	return "error"
}
