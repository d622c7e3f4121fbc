package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/markdave123-py/Docshelf/internal/api/middlewares"
	"github.com/markdave123-py/Docshelf/internal/core"
	"github.com/markdave123-py/Docshelf/internal/core/ingestion_engine"
	"github.com/markdave123-py/Docshelf/internal/models"
	"github.com/markdave123-py/Docshelf/internal/services"
)

const multipartMemory = 32 << 20

type DocumentHandler struct {
	ingestor  ingestion_engine.Ingestor
	docs      *services.DocumentService
	maxUpload int64
}

func NewDocumentHandler(ing ingestion_engine.Ingestor, docs *services.DocumentService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{ingestor: ing, docs: docs, maxUpload: maxUpload}
}

type uploadResponse struct {
	DocID         int64  `json:"doc_id"`
	Message       string `json:"message"`
	Title         string `json:"title"`
	ExtractedText string `json:"extracted_text"`
}

type documentView struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	FilePath      string `json:"file_path"`
	ExtractedText string `json:"extracted_text"`
}

// userID accepts a JSON number or a numeric string.
type userID int64

func (u *userID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("user_id %q is not an integer", s)
	}
	*u = userID(n)
	return nil
}

type driveUploadRequest struct {
	UserID      userID `json:"user_id"`
	FileID      string `json:"file_id"`
	AccessToken string `json:"access_token"`
}

// Upload ingests a multipart file sent with a user_id form field.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: user_id and file required", core.ErrValidation)
		}
		writeError(w, r, "error", err)
		return
	}

	file, header, err := r.FormFile("file")
	rawUser := strings.TrimSpace(r.FormValue("user_id"))
	if err != nil || rawUser == "" {
		writeError(w, r, "error", fmt.Errorf("%w: user_id and file required", core.ErrValidation))
		return
	}
	defer file.Close()

	owner, err := strconv.ParseInt(rawUser, 10, 64)
	if err != nil {
		writeError(w, r, "error", fmt.Errorf("%w: invalid user_id", core.ErrValidation))
		return
	}
	if err := authorize(r, owner); err != nil {
		writeError(w, r, "error", err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, "error", fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := h.ingestor.Ingest(r.Context(), owner, ingestion_engine.InlineSource{Filename: header.Filename, Data: data})
	if err != nil {
		writeError(w, r, "error", err)
		return
	}
	writeJSON(w, http.StatusCreated, uploaded(res.Document))
}

// UploadDrive ingests a Google Drive file using the caller's access token.
func (h *DocumentHandler) UploadDrive(w http.ResponseWriter, r *http.Request) {
	var req driveUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "error", fmt.Errorf("%w: invalid body: %v", core.ErrValidation, err))
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.FileID) == "" || strings.TrimSpace(req.AccessToken) == "" {
		writeError(w, r, "error", fmt.Errorf("%w: user_id, file_id and access_token required", core.ErrValidation))
		return
	}
	owner := int64(req.UserID)
	if err := authorize(r, owner); err != nil {
		writeError(w, r, "error", err)
		return
	}

	src := ingestion_engine.DriveSource{FileID: req.FileID, AccessToken: req.AccessToken}
	res, err := h.ingestor.Ingest(r.Context(), owner, src)
	if err != nil {
		writeError(w, r, "error", err)
		return
	}
	writeJSON(w, http.StatusCreated, uploaded(res.Document))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, r, "error", err)
		return
	}
	if err := authorize(r, owner); err != nil {
		writeError(w, r, "error", err)
		return
	}

	docs, err := h.docs.ListByUser(r.Context(), owner)
	if err != nil {
		writeError(w, r, "error", err)
		return
	}
	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentView{ID: d.ID, Title: d.Title, FilePath: d.FilePath, ExtractedText: d.ExtractedText})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	docID, err := pathID(r, "doc_id")
	if err != nil {
		writeError(w, r, "error", err)
		return
	}
	if _, ok := appMiddleware.UserIDFromContext(r.Context()); ok {
		doc, err := h.docs.Get(r.Context(), docID)
		if err != nil {
			writeError(w, r, "error", err)
			return
		}
		if err := authorize(r, doc.UserID); err != nil {
			writeError(w, r, "error", err)
			return
		}
	}

	if err := h.docs.Delete(r.Context(), docID); err != nil {
		writeError(w, r, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
}

// View streams the stored file with a Content-Type sniffed from its bytes.
func (h *DocumentHandler) View(w http.ResponseWriter, r *http.Request) {
	docID, err := pathID(r, "doc_id")
	if err != nil {
		writeError(w, r, "error", err)
		return
	}

	doc, rc, err := h.docs.Open(r.Context(), docID)
	if err != nil {
		writeError(w, r, "error", err)
		return
	}
	defer rc.Close()

	if err := authorize(r, doc.UserID); err != nil {
		writeError(w, r, "error", err)
		return
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		writeError(w, r, "error", fmt.Errorf("read file: %w", err))
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	http.ServeContent(w, r, path.Base(doc.FilePath), time.Time{}, bytes.NewReader(data))
}

func uploaded(d models.Document) uploadResponse {
	return uploadResponse{
		DocID:         d.ID,
		Message:       "File uploaded successfully",
		Title:         d.Title,
		ExtractedText: d.ExtractedText,
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", core.ErrValidation, name)
	}
	return id, nil
}

// authorize rejects a request whose verified token belongs to another user.
// Requests without a token are allowed.
func authorize(r *http.Request, owner int64) error {
	if uid, ok := appMiddleware.UserIDFromContext(r.Context()); ok && uid != owner {
		return fmt.Errorf("%w: token does not belong to user %d", core.ErrForbidden, owner)
	}
	return nil
}
