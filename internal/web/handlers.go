package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/KaramelBytes/csvask/internal/analyzer"
	"github.com/KaramelBytes/csvask/internal/table"
)

const uploadKey = "upload_id"

var errFileType = errors.New("unsupported file type: only .csv files are accepted")

type pageData struct {
	FileName string
	Table    *table.Table
	Question string
	Answer   string
	// Asked is set once a question reached the completion endpoint.
	Asked bool
	// Error is the completion banner; Fault is an ingestion failure.
	Error string
	Fault string
}

func (s *Server) render(c *gin.Context, status int, d pageData) {
	c.HTML(status, "page.html", d)
}

func (s *Server) session(c *gin.Context) *sessions.Session {
	// A cookie that fails to decode yields a fresh session.
	sess, _ := s.sessions.Get(c.Request, sessionName)
	return sess
}

func (s *Server) currentUpload(c *gin.Context) (*upload, bool) {
	id, _ := s.session(c).Values[uploadKey].(string)
	if id == "" {
		return nil, false
	}
	return s.uploads.Get(id)
}

// index re-runs the page from the session's upload, if any.
func (s *Server) index(c *gin.Context) {
	up, ok := s.currentUpload(c)
	if !ok {
		s.render(c, http.StatusOK, pageData{})
		return
	}
	out := s.svc.Ingest(bytes.NewReader(up.Data))
	if out.Fault != analyzer.FaultNone {
		s.render(c, http.StatusBadRequest, pageData{FileName: up.Name, Fault: out.ErrorMessage()})
		return
	}
	s.render(c, http.StatusOK, pageData{FileName: up.Name, Table: out.Table})
}

// upload accepts a new file and replaces the session's previous upload.
func (s *Server) upload(c *gin.Context) {
	name, data, status, err := s.readUpload(c)
	if err != nil {
		s.render(c, status, pageData{Fault: err.Error()})
		return
	}
	out := s.svc.Ingest(bytes.NewReader(data))
	if out.Fault != analyzer.FaultNone {
		s.render(c, http.StatusBadRequest, pageData{FileName: name, Fault: out.ErrorMessage()})
		return
	}

	sess := s.session(c)
	if prev, _ := sess.Values[uploadKey].(string); prev != "" {
		s.uploads.Delete(prev)
	}
	sess.Values[uploadKey] = s.uploads.Put(name, data)
	if err := sess.Save(c.Request, c.Writer); err != nil {
		s.logger.WithError(err).Error("save session")
		s.render(c, http.StatusInternalServerError, pageData{Fault: "could not save session"})
		return
	}
	s.render(c, http.StatusOK, pageData{FileName: name, Table: out.Table})
}

// ask runs the whole sequence again from the stored upload and shows either
// the answer or the error banner.
func (s *Server) ask(c *gin.Context) {
	up, ok := s.currentUpload(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	question := c.PostForm("question")
	out := s.svc.Ask(c.Request.Context(), bytes.NewReader(up.Data), question)
	d := pageData{FileName: up.Name, Table: out.Table, Question: question}
	switch out.Fault {
	case analyzer.FaultIngest:
		d.Table = nil
		d.Fault = out.ErrorMessage()
		s.render(c, http.StatusBadRequest, d)
		return
	case analyzer.FaultCompletion:
		d.Error = out.ErrorMessage()
	default:
		d.Answer = out.Answer
		d.Asked = out.Asked()
	}
	s.render(c, http.StatusOK, d)
}

type analyzeResponse struct {
	File     string              `json:"file"`
	Columns  []string            `json:"columns"`
	Kinds    []table.Kind        `json:"kinds"`
	RowCount int                 `json:"row_count"`
	Rows     []map[string]string `json:"rows"`
	Question string              `json:"question,omitempty"`
	Answer   string              `json:"answer,omitempty"`
	Usage    any                 `json:"usage,omitempty"`
	Error    string              `json:"error,omitempty"`
	Fault    string              `json:"fault,omitempty"`
}

// analyze is the JSON variant of upload+ask in a single request.
func (s *Server) analyze(c *gin.Context) {
	name, data, status, err := s.readUpload(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error(), "fault": analyzer.FaultIngest.String()})
		return
	}
	question := c.PostForm("question")
	out := s.svc.Ask(c.Request.Context(), bytes.NewReader(data), question)
	if out.Fault == analyzer.FaultIngest {
		c.JSON(http.StatusBadRequest, gin.H{"error": out.ErrorMessage(), "fault": out.Fault.String()})
		return
	}
	resp := analyzeResponse{
		File:     name,
		Columns:  out.Table.Columns,
		Kinds:    out.Table.Kinds,
		RowCount: out.Table.NumRows(),
		Rows:     out.Table.Records(),
		Question: question,
	}
	if out.Fault == analyzer.FaultCompletion {
		resp.Error = out.ErrorMessage()
		resp.Fault = out.Fault.String()
		c.JSON(http.StatusBadGateway, resp)
		return
	}
	if out.Asked() {
		resp.Answer = out.Answer
		resp.Usage = out.Usage
	}
	c.JSON(http.StatusOK, resp)
}

// readUpload enforces the size ceiling and the CSV-only allow-list.
func (s *Server) readUpload(c *gin.Context) (string, []byte, int, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return "", nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d MB limit", s.maxBytes>>20)
		}
		return "", nil, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	if !table.AllowedExtension(fh.Filename) {
		return fh.Filename, nil, http.StatusUnsupportedMediaType, errFileType
	}
	f, err := fh.Open()
	if err != nil {
		return fh.Filename, nil, http.StatusBadRequest, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fh.Filename, nil, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	return fh.Filename, data, http.StatusOK, nil
}
