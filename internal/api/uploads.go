package api

import (
	"net/http"

	stderrors "lifesure/internal/common/errors"
)

// handleUpload streams a multipart file to the image host and returns its URL.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploader.MaxBytes())

	file, header, err := r.FormFile("image")
	if err != nil {
		s.errs.WriteError(w, r, stderrors.NewValidationFailedError("multipart field 'image' is required", nil))
		return
	}
	defer file.Close()

	url, err := s.uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"url": url})
}
