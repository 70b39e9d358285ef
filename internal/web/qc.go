package web

import (
	"net/http"
	"net/url"
	"strconv"

	"labelhub/internal/backend"
	"labelhub/internal/calls"
)

type qcRowView struct {
	backend.QCRow
	Duplicate bool
	AI        bool
}

type qcData struct {
	Page
	RequestID    string
	DupThreshold float64
	AIThreshold  float64
	OnlyFlagged  bool
	Loaded       bool
	Rows         []qcRowView
	TotalRows    int
	FlaggedRows  int
}

func (s *Server) QCPage(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "customer")
	if sess == nil {
		return
	}

	q := r.URL.Query()
	requestID := q.Get("request_id")
	if requestID == "" {
		requestID = sess.SelectedRequestID
	} else {
		sess.SelectedRequestID = requestID
	}

	data := qcData{
		Page:         s.page("QC Review", sess),
		RequestID:    requestID,
		DupThreshold: parseFloat(q.Get("dup"), 0.85),
		AIThreshold:  parseFloat(q.Get("ai"), 0.80),
		// Flagged-only is the default; an explicit submission carries
		// the checkbox state.
		OnlyFlagged: !q.Has("load") || q.Get("flagged") != "",
	}
	if q.Get("qc_started") != "" {
		data.Note = "QC started (or mocked)."
	}

	if q.Has("load") && requestID != "" {
		svc := s.factory(sess.Token)
		out := calls.Do("Load QC results", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Loading QC results..."}, func() ([]backend.QCRow, error) {
			return svc.QCResults(r.Context(), requestID)
		})
		if out.OK {
			data.Loaded = true
			data.TotalRows = len(out.Value)
			for _, row := range out.Value {
				v := qcRowView{
					QCRow:     row,
					Duplicate: row.DuplicateScore >= data.DupThreshold,
					AI:        row.AIGeneratedScore >= data.AIThreshold,
				}
				if v.Duplicate || v.AI {
					data.FlaggedRows++
				}
				if data.OnlyFlagged && !v.Duplicate && !v.AI {
					continue
				}
				data.Rows = append(data.Rows, v)
			}
		} else {
			data.Failure = out.Failure
			data.Retry = retryGet(r)
		}
	}

	s.render(w, "qc.html", data)
}

func (s *Server) RunQC(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "customer")
	if sess == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	requestID := r.PostFormValue("request_id")
	if requestID == "" {
		http.Redirect(w, r, "/qc", http.StatusSeeOther)
		return
	}
	sess.SelectedRequestID = requestID

	svc := s.factory(sess.Token)
	out := calls.Do("Run QC", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Starting QC..."}, func() (*backend.Ack, error) {
		return svc.RunQC(r.Context(), requestID)
	})
	if !out.OK {
		data := qcData{
			Page:         s.page("QC Review", sess),
			RequestID:    requestID,
			DupThreshold: 0.85,
			AIThreshold:  0.80,
			OnlyFlagged:  true,
		}
		data.Failure = out.Failure
		data.Retry = retryPost(r)
		s.render(w, "qc.html", data)
		return
	}

	http.Redirect(w, r, "/qc?request_id="+url.QueryEscape(requestID)+"&qc_started=1", http.StatusSeeOther)
}

func parseFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return fallback
	}
	return v
}
