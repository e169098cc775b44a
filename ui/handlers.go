package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"biodelta/domain/community"
	"biodelta/domain/comparison"
	"biodelta/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sampleView struct {
	Side    string
	Loaded  bool
	Source  string
	Profile community.Profile
}

type pageData struct {
	SessionID string
	Threshold float64
	Samples   []sampleView
	Ready     bool
	Flash     string
	Error     string
	Analysis  *comparison.Analysis
	Summary   []string
	Report    template.HTML
	Chart     *BarChart
}

// pageLocked assembles the page model. Callers hold a.mu.
func (a *App) pageLocked() pageData {
	data := pageData{
		SessionID: a.session.ID().String(),
		Threshold: a.session.Threshold(),
		Ready:     a.session.Ready(),
		Flash:     a.flash,
	}
	a.flash = ""

	for _, side := range []community.Side{community.Before, community.After} {
		view := sampleView{Side: side.String()}
		if sample := a.session.Sample(side); sample != nil {
			view.Loaded = true
			view.Source = sample.Source
			view.Profile = community.ProfileOf(sample)
		}
		data.Samples = append(data.Samples, view)
	}

	if analysis := a.session.Result(); analysis != nil {
		data.Analysis = analysis
		data.Summary = analysis.SummaryLines()
		data.Report = renderMarkdown(analysis.Markdown())
		data.Chart = NewBarChart(analysis)
	}
	return data
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.renderTemplate(w, http.StatusOK, "index.html", a.pageLocked())
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// renderError shows the page with err and the matching status. Callers hold a.mu.
func (a *App) renderError(w http.ResponseWriter, err error) {
	a.logger.Warn("%s: %v", errors.GetCode(err), err)
	data := a.pageLocked()
	data.Error = err.Error()
	a.renderTemplate(w, statusFor(err), "index.html", data)
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	side, err := parseSide(r)
	if err != nil {
		a.renderError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.config.MaxUploadBytes); err != nil {
		a.renderError(w, errors.InvalidInput(fmt.Sprintf("could not read upload: %v", err)))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.renderError(w, errors.InvalidInput(fmt.Sprintf("no %s file uploaded", side)))
		return
	}
	defer file.Close()

	table, err := a.readUpload(file, header.Filename)
	if err != nil {
		// a file the reader cannot open is the uploader's problem, not ours
		if errors.IsCode(err, errors.CodeIOError) {
			err = errors.WithCode(errors.CodeInvalidInput, err)
		}
		a.renderError(w, errors.Wrapf(err, "failed to load %s data", side))
		return
	}

	sample, err := a.session.LoadTable(side, header.Filename, table)
	if err != nil {
		a.renderError(w, err)
		return
	}

	a.flash = fmt.Sprintf("%s sample loaded from %s (%d rows)", side, header.Filename, sample.Len())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readUpload spools the upload to a temporary file with the original
// extension so the reader can pick the right format.
func (a *App) readUpload(file io.Reader, filename string) (*community.Table, error) {
	tmp, err := os.CreateTemp("", "biodelta-upload-*"+filepath.Ext(filename))
	if err != nil {
		return nil, errors.IOError(os.TempDir(), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return nil, errors.IOError(tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.IOError(tmp.Name(), err)
	}
	return a.reader.ReadTable(tmp.Name())
}

func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	analysis, err := a.session.Analyze()
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.flash = analysis.Result.Message()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var buf bytes.Buffer
	if err := a.session.ExportTo(&buf); err != nil {
		a.renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="entropy_results.xlsx"`)
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Error("Error writing workbook: %v", err)
	}
}

func (a *App) handleReset(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session.Reset()
	a.flash = "Session cleared"
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeSchemaError, errors.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case errors.CodeStateError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
