package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"labelhub/internal/backend"
	"labelhub/internal/calls"
)

type annotateData struct {
	Page
	TaskID    string
	Task      *backend.Task
	Classes   []string
	Progress  *backend.TaskProgress
	Remaining int
	Index     int
	MaxIndex  int
	Image     backend.TaskImage
	HasPrev   bool
	HasNext   bool
	CanFinish bool
	AutoNext  bool
}

func (s *Server) AnnotatePage(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "labeler", "admin")
	if sess == nil {
		return
	}

	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		taskID = sess.SelectedTaskID
	}
	if taskID == "" {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}
	sess.SelectedTaskID = taskID

	if idxRaw := r.URL.Query().Get("idx"); idxRaw != "" {
		if idx, err := strconv.Atoi(idxRaw); err == nil {
			sess.ImageIndex[taskID] = idx
		}
	}

	svc := s.factory(sess.Token)
	data, ok := s.buildAnnotate(r.Context(), sess, svc, taskID)
	if !ok {
		data.Retry = retryGet(r)
	}
	if r.URL.Query().Get("saved") != "" {
		data.Note = "Saved."
	}
	s.render(w, "annotate.html", data)
}

// buildAnnotate loads everything the annotate view needs. A false
// return means the task itself could not be loaded and data carries
// the failure block.
func (s *Server) buildAnnotate(ctx context.Context, sess *Session, svc backend.Service, taskID string) (annotateData, bool) {
	data := annotateData{
		Page:   s.page("Annotate", sess),
		TaskID: taskID,
	}

	outTask := calls.Do("Load task", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Loading task..."}, func() (*backend.Task, error) {
		return svc.GetTask(ctx, taskID)
	})
	if !outTask.OK {
		data.Failure = outTask.Failure
		return data, false
	}
	task := outTask.Value
	data.Task = task

	classes := task.Classes
	if len(classes) == 0 {
		classes = sess.CachedClasses
	}
	if len(classes) == 0 {
		classes = []string{"pothole", "crosswalk", "traffic_light", "road_sign"}
	}
	sess.CachedClasses = classes
	data.Classes = classes

	outProgress := calls.Do("Load progress", calls.Options{SpinnerText: "Loading progress..."}, func() (*backend.TaskProgress, error) {
		return fetchProgress(ctx, svc, taskID, len(task.Images))
	})
	if outProgress.OK {
		data.Progress = outProgress.Value
	} else {
		// Progress is decoration; fall back to zero rather than
		// blocking annotation.
		data.Progress = &backend.TaskProgress{TaskID: taskID, TotalImages: len(task.Images)}
	}
	data.Remaining = data.Progress.TotalImages - data.Progress.LabeledImages
	if data.Remaining < 0 {
		data.Remaining = 0
	}
	data.CanFinish = data.Progress.TotalImages > 0 && data.Progress.LabeledImages >= data.Progress.TotalImages

	if len(task.Images) > 0 {
		data.MaxIndex = len(task.Images) - 1
		idx := sess.ImageIndex[taskID]
		if idx < 0 {
			idx = 0
		}
		if idx > data.MaxIndex {
			idx = data.MaxIndex
		}
		sess.ImageIndex[taskID] = idx
		data.Index = idx
		data.Image = task.Images[idx]
		data.HasPrev = idx > 0
		data.HasNext = idx < data.MaxIndex
	}
	data.AutoNext = true

	return data, true
}

// fetchProgress treats "route not there yet" answers as zero progress,
// the way the annotate view always has, instead of failing the page.
func fetchProgress(ctx context.Context, svc backend.Service, taskID string, total int) (*backend.TaskProgress, error) {
	p, err := svc.TaskProgress(ctx, taskID)
	if err == nil {
		return p, nil
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
			return &backend.TaskProgress{TaskID: taskID, TotalImages: total}, nil
		}
	}
	return nil, err
}

func (s *Server) SaveLabels(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "labeler", "admin")
	if sess == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	taskID := r.PostFormValue("task_id")
	imageID := r.PostFormValue("image_id")
	labels := r.PostForm["labels"]
	autoNext := r.PostFormValue("auto_next") != ""

	if taskID == "" || imageID == "" {
		http.Redirect(w, r, "/annotate", http.StatusSeeOther)
		return
	}

	svc := s.factory(sess.Token)
	out := calls.Do("Save labels", calls.Options{ShowPayload: true, SuccessNote: true, OfferRetry: true, SpinnerText: "Saving..."}, func() (*backend.Ack, error) {
		return svc.SaveLabels(r.Context(), taskID, imageID, labels)
	})
	if !out.OK {
		data, _ := s.buildAnnotate(r.Context(), sess, svc, taskID)
		data.Failure = out.Failure
		data.Retry = retryPost(r)
		s.render(w, "annotate.html", data)
		return
	}

	if autoNext {
		sess.ImageIndex[taskID]++
	}
	http.Redirect(w, r, "/annotate?saved=1", http.StatusSeeOther)
}

func (s *Server) FinishTask(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "labeler", "admin")
	if sess == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	taskID := r.PostFormValue("task_id")
	if taskID == "" {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}

	svc := s.factory(sess.Token)
	out := calls.Do("Complete task", calls.Options{ShowPayload: true, SuccessNote: true, OfferRetry: true, SpinnerText: "Completing task..."}, func() (*backend.Ack, error) {
		return svc.CompleteTask(r.Context(), taskID)
	})
	if !out.OK {
		data, _ := s.buildAnnotate(r.Context(), sess, svc, taskID)
		data.Failure = out.Failure
		data.Retry = retryPost(r)
		s.render(w, "annotate.html", data)
		return
	}

	http.Redirect(w, r, "/tasks?done="+taskID, http.StatusSeeOther)
}
