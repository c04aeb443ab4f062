package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"idconsole/internal/api"
	"idconsole/internal/backend"
	"idconsole/internal/console"
	"idconsole/internal/forms"
	"idconsole/internal/i18n"
	"idconsole/internal/jobs"
	"idconsole/internal/logging"
	"idconsole/internal/services"
	"idconsole/internal/textutil"
)

type jobsView struct {
	Rows []console.JobRow
}

type jobView struct {
	Row         console.JobRow
	Progress    []string
	Fingerprint string
	Duration    string
}

type uploadView struct {
	Filename string
	Options  api.UploadOptions
	Accept   string
	Errors   map[string]string
}

// handleJobs lists jobs newest first. The page refreshes itself on the poll
// interval while any job is live; a failed fetch shows a banner and keeps
// refreshing.
func (s *Server) handleJobs(c echo.Context) error {
	tr := s.translator(c)
	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	list, err := client.ListJobs(requestContext(c))
	if err != nil {
		if services.IsCanceled(err) {
			return err
		}
		s.logger.Warn("list jobs failed", logging.Error(err))
		return s.render(c, page{
			name:    "jobs",
			title:   i18n.TitleJobs,
			err:     s.failure(c, err),
			refresh: s.pollSeconds(),
			content: jobsView{},
		})
	}

	store := jobs.NewStore()
	store.ReplaceAll(list)
	rows := console.JobRows(store.Sorted(), tr)
	p := page{name: "jobs", title: i18n.TitleJobs, content: jobsView{Rows: rows}}
	if console.AnyLive(rows) {
		p.refresh = s.pollSeconds()
	}
	if accepted := c.QueryParam("accepted"); accepted != "" {
		p.flash = tr.T(i18n.MessageUploadAccepted, accepted)
	}
	return s.render(c, p)
}

func (s *Server) handleJob(c echo.Context) error {
	tr := s.translator(c)
	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	ctx := services.WithJobID(requestContext(c), id)
	job, err := client.GetJob(ctx, id)
	if err != nil {
		if services.IsCanceled(err) {
			return err
		}
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrNotFound) {
			status = http.StatusNotFound
		}
		return s.render(c, page{status: status, name: "error", title: i18n.TitleJob, err: s.failure(c, err)})
	}

	view := jobView{Row: console.NewJobRow(*job, tr), Progress: job.Progress}
	if job.Result != nil {
		view.Fingerprint = job.Result.FingerprintID
		if job.Result.DurationSeconds > 0 {
			view.Duration = (time.Duration(job.Result.DurationSeconds * float64(time.Second))).Round(time.Second).String()
		}
	}
	p := page{name: "job", title: i18n.TitleJob, content: view}
	if view.Row.Live {
		p.refresh = s.pollSeconds()
	}
	return s.render(c, p)
}

func (s *Server) handleUploadForm(c echo.Context) error {
	return s.render(c, page{name: "upload", title: i18n.TitleUpload, content: s.uploadView(api.UploadOptions{})})
}

func (s *Server) uploadView(opts api.UploadOptions) uploadView {
	return uploadView{Options: opts, Accept: acceptList()}
}

// handleUpload validates the chosen file before any backend call and keeps
// the chosen options when the form is shown again.
func (s *Server) handleUpload(c echo.Context) error {
	tr := s.translator(c)
	opts := api.UploadOptions{
		SecondaryProvider: c.FormValue("secondary_provider") != "",
		StoreFingerprint:  c.FormValue("store_fingerprint") != "",
		MetadataOnly:      c.FormValue("metadata_only") != "",
	}
	view := s.uploadView(opts)

	var (
		name string
		size int64
	)
	header, err := c.FormFile("file")
	if err == nil {
		name, size = textutil.UploadName(header.Filename), header.Size
	}
	view.Filename = name
	if err := s.validator.Upload(forms.Upload{Filename: name, Size: size}); err != nil {
		if ferrs, ok := forms.AsErrors(err); ok {
			view.Errors = ferrs.Localize(tr)
		}
		return s.render(c, page{status: http.StatusUnprocessableEntity, name: "upload", title: i18n.TitleUpload, content: view})
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("web: open upload: %w", err)
	}
	defer file.Close()

	client, _, err := s.client(c)
	if err != nil {
		return err
	}
	resp, err := client.Upload(requestContext(c), backend.UploadFile{Name: name, Content: file, Options: opts})
	if err != nil {
		if services.IsCanceled(err) {
			return err
		}
		s.logger.Warn("upload failed", logging.String("filename", name), logging.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrValidation) {
			status = http.StatusUnprocessableEntity
		}
		return s.render(c, page{status: status, name: "upload", title: i18n.TitleUpload, err: s.failure(c, err), content: view})
	}
	s.logger.Info("upload accepted",
		logging.String(logging.FieldJobID, resp.JobID),
		logging.String("filename", name),
	)
	return c.Redirect(http.StatusSeeOther, localePath(c, "/jobs/"+resp.JobID))
}

func acceptList() string {
	return "audio/*," + strings.Join(forms.AudioExtensions, ",")
}
