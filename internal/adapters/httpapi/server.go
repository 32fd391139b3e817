package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/zamalek-residents/member-registry/internal/app/auth"
	"github.com/zamalek-residents/member-registry/internal/app/members"
	"github.com/zamalek-residents/member-registry/internal/domain"
	"github.com/zamalek-residents/member-registry/internal/platform/metrics"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server holds the API handlers.
type Server struct {
	Members *members.Service
	Auth    *auth.Service
	Metrics *metrics.Metrics

	log *slog.Logger
}

func NewServer(membersSvc *members.Service, authSvc *auth.Service, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Members: membersSvc, Auth: authSvc, Metrics: m, log: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// updateMemberRequest distinguishes omitted fields from explicit nulls.
type updateMemberRequest struct {
	Name             nullable.Nullable[any] `json:"اسم العضو"`
	MembershipNumber nullable.Nullable[any] `json:"عضوية"`
	UnitNumber       nullable.Nullable[any] `json:"شقة"`
	BuildingNumber   nullable.Nullable[any] `json:"عمارة"`
	District         nullable.Nullable[any] `json:"حي"`
	AmountPaid       nullable.Nullable[any] `json:"المبلغ المدفوع"`
}

type statsResponse struct {
	TotalMembers  int     `json:"total_members"`
	TotalAmount   float64 `json:"total_amount"`
	Districts     int     `json:"districts"`
	AverageAmount float64 `json:"average_amount"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Database     string `json:"database,omitempty"`
	TotalMembers *int   `json:"total_members,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	body, ok := readObject(w, r, &fields)
	if !ok {
		return
	}
	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	username, err := s.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if ae := (*auth.Error)(nil); errors.As(err, &ae) && ae.Code == auth.CodeInvalidCredentials {
			s.log.WarnContext(r.Context(), "login failed", slog.String("username", req.Username))
			s.Metrics.CountLogin("failure")
		} else if errors.As(err, &ae) {
			s.Metrics.CountLogin("invalid")
		} else {
			s.Metrics.CountLogin("error")
		}
		s.writeAppError(w, r, "login", err)
		return
	}

	s.log.InfoContext(r.Context(), "login succeeded", slog.String("username", username))
	s.Metrics.CountLogin("success")
	writeJSON(w, http.StatusOK, envelope{
		Success:  true,
		Message:  "تم تسجيل الدخول بنجاح",
		Username: username,
	})
}

func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Members.ListMembers(r.Context())
	s.Metrics.CountMemberOperation("list", outcome(err))
	if err != nil {
		s.writeAppError(w, r, "list", err)
		return
	}
	s.writeMembers(w, ms)
}

func (s *Server) SearchMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Members.SearchMembers(r.Context(), r.URL.Query().Get("name"))
	s.Metrics.CountMemberOperation("search", outcome(err))
	if err != nil {
		s.writeAppError(w, r, "search", err)
		return
	}
	s.writeMembers(w, ms)
}

func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if _, ok := readObject(w, r, &fields); !ok {
		return
	}

	m, err := s.Members.AddMember(r.Context(), members.CreateMemberInputFromFields(fields))
	s.Metrics.CountMemberOperation("create", outcome(err))
	if err != nil {
		s.writeAppError(w, r, "create", err)
		return
	}

	s.log.InfoContext(r.Context(), "member added",
		slog.Int("id", int(m.ID)),
		slog.String("name", m.Name),
		slog.Int("membership_number", m.MembershipNumber),
	)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "تم إضافة العضو بنجاح",
		Data:    m.Fields(),
	})
}

func (s *Server) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.ParseMemberID(chi.URLParam(r, "id"))
	if !ok {
		writeFailure(w, http.StatusNotFound, msgPageNotFound)
		return
	}
	var fields map[string]any
	body, ok := readObject(w, r, &fields)
	if !ok {
		return
	}
	var req updateMemberRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	m, err := s.Members.UpdateMember(r.Context(), id, members.UpdateMemberInput{
		Name:             optionalFrom(req.Name),
		MembershipNumber: optionalFrom(req.MembershipNumber),
		UnitNumber:       optionalFrom(req.UnitNumber),
		BuildingNumber:   optionalFrom(req.BuildingNumber),
		District:         optionalFrom(req.District),
		AmountPaid:       optionalFrom(req.AmountPaid),
	})
	s.Metrics.CountMemberOperation("update", outcome(err))
	if err != nil {
		s.writeAppError(w, r, "update", err)
		return
	}

	s.log.InfoContext(r.Context(), "member updated", slog.Int("id", int(m.ID)), slog.String("name", m.Name))
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "تم تحديث بيانات العضو بنجاح",
		Data:    m.Fields(),
	})
}

func (s *Server) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.ParseMemberID(chi.URLParam(r, "id"))
	if !ok {
		writeFailure(w, http.StatusNotFound, msgPageNotFound)
		return
	}

	m, err := s.Members.DeleteMember(r.Context(), id)
	s.Metrics.CountMemberOperation("delete", outcome(err))
	if err != nil {
		s.writeAppError(w, r, "delete", err)
		return
	}

	s.log.InfoContext(r.Context(), "member deleted", slog.Int("id", int(m.ID)), slog.String("name", m.Name))
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "تم حذف العضو بنجاح"})
}

func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Members.Stats(r.Context())
	s.Metrics.CountMemberOperation("stats", outcome(err))
	if err != nil {
		s.writeAppError(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: statsResponse{
			TotalMembers:  st.TotalMembers,
			TotalAmount:   st.TotalAmount,
			Districts:     st.Districts,
			AverageAmount: st.AverageAmount,
		},
	})
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	count, err := s.Members.Health(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "health check failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, healthResponse{
			Status:  "unhealthy",
			Message: "خطأ في الاتصال بقاعدة البيانات",
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "healthy",
		Message:      "الخادم وقاعدة البيانات يعملان بشكل طبيعي",
		Database:     "connected",
		TotalMembers: &count,
	})
}

func (s *Server) writeMembers(w http.ResponseWriter, ms []domain.Member) {
	data := make([]map[string]any, 0, len(ms))
	for _, m := range ms {
		data = append(data, m.Fields())
	}
	count := len(data)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Count: &count})
}

// readObject reads the body and decodes it into dst, which must end up a
// non-empty JSON object. On failure it writes a 400 and returns false.
func readObject(w http.ResponseWriter, r *http.Request, dst *map[string]any) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil || len(*dst) == 0 {
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	return body, true
}

func optionalFrom(n nullable.Nullable[any]) members.Optional[any] {
	switch {
	case !n.IsSpecified():
		return members.Unspecified[any]()
	case n.IsNull():
		return members.Null[any]()
	default:
		v, err := n.Get()
		if err != nil {
			return members.Null[any]()
		}
		return members.Some(v)
	}
}
