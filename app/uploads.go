package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/postline/internal/mediaservice"
)

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

func (app *application) uploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, mediaservice.MaxUploadSize+uploadOverhead)

	err := r.ParseMultipartForm(mediaservice.MaxUploadSize)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			app.failedValidationErrorResponse(w, r, map[string]string{"file": "file size too large, maximum size is 5MB"})
			return
		}
		app.badRequestErrorResponse(w, r, errors.New("request body must be a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		app.failedValidationErrorResponse(w, r, map[string]string{"file": "must be provided"})
		return
	}
	defer file.Close()

	url, err := app.mediaService.Upload(r.Context(), app.callerID(r), &mediaservice.UploadRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Folder:      r.FormValue("folder"),
		Body:        file,
	})
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"url": url}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
