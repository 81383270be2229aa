package server

import (
	"bytes"
	"encoding/base64"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emrgen/notebook/internal/chart"
	"github.com/emrgen/notebook/internal/csvimport"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/docsync"
	"github.com/emrgen/notebook/internal/pdfinfo"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/service"
	"github.com/gorilla/mux"
)

// maxUploadSize bounds imported files.
const maxUploadSize = 10 << 20

// Handlers serves the project API.
type Handlers struct {
	projects  *service.ProjectService
	workspace *service.Workspace
	hub       *Hub
	newRand   func() *rand.Rand
}

func NewHandlers(projects *service.ProjectService, workspace *service.Workspace, hub *Hub) *Handlers {
	return &Handlers{
		projects:  projects,
		workspace: workspace,
		hub:       hub,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
		},
	}
}

// Register mounts the routes on r.
func (s *Handlers) Register(r *mux.Router) {
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/projects", s.CreateProject).Methods(http.MethodPost)
	v1.HandleFunc("/projects", s.ListProjects).Methods(http.MethodGet)

	p := v1.PathPrefix("/projects/{id}").Subrouter()
	p.HandleFunc("", s.GetProject).Methods(http.MethodGet)
	p.HandleFunc("", s.DeleteProject).Methods(http.MethodDelete)
	p.HandleFunc("/title", s.UpdateTitle).Methods(http.MethodPut)
	p.HandleFunc("/files", s.ListFiles).Methods(http.MethodGet)
	p.HandleFunc("/files", s.AddFile).Methods(http.MethodPost)
	p.HandleFunc("/files/{fileId}", s.GetFile).Methods(http.MethodGet)
	p.HandleFunc("/files/{fileId}", s.SaveFile).Methods(http.MethodPut)
	p.HandleFunc("/backups", s.ListBackups).Methods(http.MethodGet)
	p.HandleFunc("/document", s.GetDocument).Methods(http.MethodGet)
	p.HandleFunc("/document", s.ReplaceDocument).Methods(http.MethodPut)
	p.HandleFunc("/selection", s.GetSelection).Methods(http.MethodGet)
	p.HandleFunc("/selection", s.SetSelection).Methods(http.MethodPut)
	p.HandleFunc("/snapshot", s.GetSnapshot).Methods(http.MethodGet)
	p.HandleFunc("/chart-data", s.GetChartData).Methods(http.MethodGet)
	p.HandleFunc("/tables", s.ListTables).Methods(http.MethodGet)
	p.HandleFunc("/tables", s.InsertTable).Methods(http.MethodPost)
	p.HandleFunc("/charts", s.InsertChart).Methods(http.MethodPost)
	p.HandleFunc("/compare", s.CompareTables).Methods(http.MethodPost)
	p.HandleFunc("/summaries", s.ListSummaries).Methods(http.MethodGet)
	p.HandleFunc("/summaries", s.InsertSummary).Methods(http.MethodPost)
	p.HandleFunc("/pdf-links", s.InsertPdfLink).Methods(http.MethodPost)
	p.HandleFunc("/import/csv", s.ImportCSV).Methods(http.MethodPost)
	p.HandleFunc("/import/svg", s.ImportSVG).Methods(http.MethodPost)
	p.HandleFunc("/comments", s.ListComments).Methods(http.MethodGet)
	p.HandleFunc("/comments", s.SetComment).Methods(http.MethodPost)
	p.HandleFunc("/comments/{commentId}", s.UnsetComment).Methods(http.MethodDelete)
	p.HandleFunc("/experiment", s.GetExperiment).Methods(http.MethodGet)
	p.HandleFunc("/experiment", s.ImportReadings).Methods(http.MethodPost)
	p.HandleFunc("/experiment/bidirectional", s.SetBidirectional).Methods(http.MethodPut)
	p.HandleFunc("/experiment/readings/{index:[0-9]+}", s.EditReading).Methods(http.MethodPut)
	p.HandleFunc("/experiment/readings/{index:[0-9]+}/click", s.ClickReading).Methods(http.MethodPost)
	p.HandleFunc("/events", s.HandleEvents).Methods(http.MethodGet)
}

type createProjectRequest struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

func (s *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	p, err := s.projects.CreateProject(r.Context(), req.Name, req.Owner)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, p)
}

func (s *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.ListProjects(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, projects)
}

func (s *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

func (s *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.projects.DeleteProject(r.Context(), id); err != nil {
		errorResponse(w, err)
		return
	}
	s.workspace.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

type titleRequest struct {
	Name string `json:"name"`
}

func (s *Handlers) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	if err := s.projects.UpdateTitle(r.Context(), mux.Vars(r)["id"], req.Name); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fileRequest struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
}

func (s *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.projects.ListFiles(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, files)
}

func (s *Handlers) AddFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	f, err := s.projects.AddFile(r.Context(), mux.Vars(r)["id"], req.Name, req.MimeType, req.Content)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, f)
}

func (s *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	f, err := s.projects.GetFile(r.Context(), vars["id"], vars["fileId"])
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, f)
}

func (s *Handlers) SaveFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := s.projects.SaveFileContent(r.Context(), vars["id"], vars["fileId"], req.Content); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Handlers) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.projects.ListBackups(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, backups)
}

// session opens the session named by the route, writing the error
// response when it cannot.
func (s *Handlers) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := s.workspace.Open(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, err)
		return nil, false
	}
	return sess, true
}

// position reads a document position from the query, defaulting to the
// end of the document.
func position(r *http.Request, root *doc.Node) (int, error) {
	raw := r.URL.Query().Get("pos")
	if raw == "" {
		return root.ContentSize(), nil
	}
	pos, err := strconv.Atoi(raw)
	if err != nil {
		return 0, doc.ErrInvalidPosition
	}
	return pos, nil
}

type documentResponse struct {
	Version   uint64        `json:"version"`
	Doc       *doc.Node     `json:"doc"`
	HTML      string        `json:"html"`
	Selection doc.Selection `json:"selection"`
}

func (s *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	root := sess.Document()
	markup, err := doc.RenderHTML(root)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, documentResponse{
		Version:   sess.Editor.Version(),
		Doc:       root,
		HTML:      markup,
		Selection: sess.Selection(),
	})
}

type documentRequest struct {
	HTML string `json:"html"`
}

func (s *Handlers) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.ReplaceContent(req.HTML); err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sess.Snapshot())
}

func (s *Handlers) GetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, sess.Selection())
}

func (s *Handlers) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req doc.Selection
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.SetSelection(req.From, req.To); err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sess.Selection())
}

func (s *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, sess.Snapshot())
}

// GetChartData returns the row set charts without a bound table plot. It
// is null when the document has no table.
func (s *Handlers) GetChartData(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rs, ok := sess.Context().ChartData()
	if !ok {
		jsonResponse(w, http.StatusOK, nil)
		return
	}
	jsonResponse(w, http.StatusOK, rs)
}

func (s *Handlers) ListTables(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	tables := sess.Snapshot().Tables
	if tables == nil {
		tables = []docsync.TableInfo{}
	}
	jsonResponse(w, http.StatusOK, tables)
}

type insertTableRequest struct {
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
	Name string `json:"name"`
}

type insertedTable struct {
	Pos  int    `json:"pos"`
	ID   string `json:"tableId"`
	Name string `json:"tableName"`
}

func (s *Handlers) InsertTable(w http.ResponseWriter, r *http.Request) {
	var req insertTableRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pos, err := position(r, sess.Document())
	if err != nil {
		errorResponse(w, err)
		return
	}
	ref, err := sess.InsertTable(pos, req.Rows, req.Cols, req.Name)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, insertedTable{Pos: ref.Pos, ID: ref.ID, Name: ref.Name})
}

type insertChartRequest struct {
	Cursor     *int     `json:"cursor"`
	ChartType  string   `json:"chartType"`
	XAxisKey   string   `json:"xAxisKey"`
	SeriesKeys []string `json:"seriesKeys"`
	XAxisLabel string   `json:"xAxisLabel"`
	YAxisLabel string   `json:"yAxisLabel"`
	RowLimit   int      `json:"rowLimit"`
	Legends    []string `json:"legends"`
}

type insertedBlock struct {
	Pos int `json:"pos"`
}

// InsertChart inserts a chart after the table holding the cursor. The
// cursor defaults to the current selection.
func (s *Handlers) InsertChart(w http.ResponseWriter, r *http.Request) {
	var req insertChartRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	cursor := sess.Selection().From
	if req.Cursor != nil {
		cursor = *req.Cursor
	}
	chartType, ok := chart.ParseType(req.ChartType)
	if !ok {
		chartType = chart.Line
	}

	pos, err := sess.InsertChartAfterTable(cursor, chart.Block{
		ChartType:  chartType,
		XAxisKey:   req.XAxisKey,
		SeriesKeys: req.SeriesKeys,
		XAxisLabel: req.XAxisLabel,
		YAxisLabel: req.YAxisLabel,
		RowLimit:   req.RowLimit,
		Legends:    req.Legends,
	})
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, insertedBlock{Pos: pos})
}

type compareRequest struct {
	TableIDs   []string `json:"tableIds"`
	ChartType  string   `json:"chartType"`
	XAxisLabel string   `json:"xAxisLabel"`
	YAxisLabel string   `json:"yAxisLabel"`
}

func (s *Handlers) CompareTables(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pos, err := position(r, sess.Document())
	if err != nil {
		errorResponse(w, err)
		return
	}

	opts := docsync.CompareOptions{XAxisLabel: req.XAxisLabel, YAxisLabel: req.YAxisLabel}
	if t, ok := chart.ParseType(req.ChartType); ok {
		opts.ChartType = t
	}
	b, err := sess.CompareTables(pos, req.TableIDs, opts)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, b)
}

func (s *Handlers) ListSummaries(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	summaries := sess.Snapshot().Summaries
	if summaries == nil {
		summaries = []docsync.SummaryView{}
	}
	jsonResponse(w, http.StatusOK, summaries)
}

type insertSummaryRequest struct {
	TableID    string `json:"tableId"`
	ColumnName string `json:"columnName"`
}

func (s *Handlers) InsertSummary(w http.ResponseWriter, r *http.Request) {
	var req insertSummaryRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pos, err := position(r, sess.Document())
	if err != nil {
		errorResponse(w, err)
		return
	}
	at, err := sess.InsertSummary(pos, req.TableID, req.ColumnName)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, insertedBlock{Pos: at})
}

type pdfLinkRequest struct {
	Src      string `json:"src"`
	FileName string `json:"fileName"`
}

type pdfLinkResponse struct {
	Pos    int           `json:"pos"`
	Src    string        `json:"src"`
	FileID string        `json:"fileId,omitempty"`
	Info   *pdfinfo.Info `json:"info,omitempty"`
}

// InsertPdfLink inserts a PDF chip. A JSON body links an existing source;
// a multipart upload is stored as a project file first and the chip links
// to that file.
func (s *Handlers) InsertPdfLink(w http.ResponseWriter, r *http.Request) {
	var req pdfLinkRequest
	var out pdfLinkResponse

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		data, _, err := upload(r)
		if err != nil {
			errorResponse(w, err)
			return
		}
		info, err := pdfinfo.Inspect(data)
		if err != nil {
			errorResponse(w, err)
			return
		}
		_, header, _ := r.FormFile("file")
		req.FileName = header.Filename

		projectID := mux.Vars(r)["id"]
		f, err := s.projects.AddFile(r.Context(), projectID, req.FileName, "application/pdf", base64.StdEncoding.EncodeToString(data))
		if err != nil {
			errorResponse(w, err)
			return
		}
		req.Src = "/v1/projects/" + projectID + "/files/" + f.ID
		out.FileID = f.ID
		out.Info = &info
	} else if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pos, err := position(r, sess.Document())
	if err != nil {
		errorResponse(w, err)
		return
	}
	at, err := sess.InsertPdfLink(pos, req.Src, req.FileName)
	if err != nil {
		errorResponse(w, err)
		return
	}
	out.Pos = at
	out.Src = req.Src
	jsonResponse(w, http.StatusCreated, out)
}

// upload reads an imported file from a multipart "file" field or, for
// any other content type, from the raw body. The returned name is the
// uploaded file name without extension.
func upload(r *http.Request) ([]byte, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, "", errBadRequestBody
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errBadRequestBody
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		name := header.Filename
		if i := strings.LastIndex(name, "."); i > 0 {
			name = name[:i]
		}
		return data, name, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
	if err != nil {
		return nil, "", err
	}
	return data, "", nil
}

type csvImportResponse struct {
	Pos        int                 `json:"pos"`
	Headers    []string            `json:"headers"`
	Rows       rowset.RowSet       `json:"rows"`
	Table      string              `json:"table"`
	Experiment *service.Experiment `json:"experiment,omitempty"`
}

// ImportCSV inserts an uploaded CSV as a table. With experiment=true the
// rows also replace the project's workbench readings.

func (s *Handlers) ImportCSV(w http.ResponseWriter, r *http.Request) {
	data, name, err := upload(r)
	if err != nil {
		errorResponse(w, err)
		return
	}
	if n := r.URL.Query().Get("name"); n != "" {
		name = n
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pos, err := position(r, sess.Document())
	if err != nil {
		errorResponse(w, err)
		return
	}

	res, err := sess.ImportCSV(pos, bytes.NewReader(data), name)
	if err != nil {
		errorResponse(w, err)
		return
	}
	out := csvImportResponse{Pos: pos, Headers: res.Headers, Rows: res.KeyedRows(), Table: res.TableMarkup}
	if out.Headers == nil {
		out.Headers = []string{}
	}
	if experiment, _ := strconv.ParseBool(r.URL.Query().Get("experiment")); experiment {
		out.Experiment, err = s.projects.ImportReadings(r.Context(), sess.ProjectID, res.RowSet)
		if err != nil {
			errorResponse(w, err)
			return
		}
	}
	jsonResponse(w, http.StatusCreated, out)
}

func (s *Handlers) ImportSVG(w http.ResponseWriter, r *http.Request) {
	data, _, err := upload(r)
	if err != nil {
		errorResponse(w, err)
		return
	}
	query := r.URL.Query()
	mode, err := docsync.ParseImportMode(query.Get("mode"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pos, err := position(r, sess.Document())
	if err != nil {
		errorResponse(w, err)
		return
	}

	res, err := sess.ImportSVG(pos, string(data), query.Get("src"), mode, s.newRand())
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

type commentRequest struct {
	From      int    `json:"from"`
	To        int    `json:"to"`
	CommentID string `json:"commentId"`
}

type commentResponse struct {
	CommentID string `json:"commentId"`
}

func (s *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ids := sess.Comments()
	if ids == nil {
		ids = []string{}
	}
	jsonResponse(w, http.StatusOK, ids)
}

// SetComment marks a range with a comment. A blank comment id is
// generated.
func (s *Handlers) SetComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	id, err := sess.SetComment(req.From, req.To, req.CommentID)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, commentResponse{CommentID: id})
}

// UnsetComment removes a comment mark from the whole document.
func (s *Handlers) UnsetComment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.UnsetComment(mux.Vars(r)["commentId"]); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Handlers) GetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := s.projects.GetExperiment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, exp)
}

// ImportReadings replaces the workbench readings with an uploaded CSV
// without touching the document.
func (s *Handlers) ImportReadings(w http.ResponseWriter, r *http.Request) {
	data, _, err := upload(r)
	if err != nil {
		errorResponse(w, err)
		return
	}
	res, err := csvimport.Ingest(bytes.NewReader(data), csvimport.Options{})
	if err != nil {
		errorResponse(w, err)
		return
	}
	exp, err := s.projects.ImportReadings(r.Context(), mux.Vars(r)["id"], res.RowSet)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, exp)
}

type readingRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func readingIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return 0, csvimport.ErrReadingNotFound
	}
	return index, nil
}

func (s *Handlers) EditReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	index, err := readingIndex(r)
	if err != nil {
		errorResponse(w, err)
		return
	}
	exp, err := s.projects.EditReading(r.Context(), mux.Vars(r)["id"], index, req.Field, req.Value)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, exp)
}

// ClickReading applies a click on a plotted reading. It answers 409 while
// bidirectional editing is off.
func (s *Handlers) ClickReading(w http.ResponseWriter, r *http.Request) {
	index, err := readingIndex(r)
	if err != nil {
		errorResponse(w, err)
		return
	}
	exp, err := s.projects.ClickReading(r.Context(), mux.Vars(r)["id"], index)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, exp)
}

type bidirectionalRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Handlers) SetBidirectional(w http.ResponseWriter, r *http.Request) {
	var req bidirectionalRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}
	exp, err := s.projects.SetBidirectional(r.Context(), mux.Vars(r)["id"], req.Enabled)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, exp)
}
