package admin

import (
	"errors"
	"net/http"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"

	"github.com/MonkyMars/gecho"
)

// multipart headers and boundaries on top of the file itself
const multipartOverhead = 1 << 20

// UploadProductImage accepts a multipart "file" field and returns the public URL.
func (ar *AdminRoutesManager) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := ar.storageService.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handling.HandleError(lib.NewValidationError("file", "is too large"), "Image is too large", ar.logger, w)
			return
		}
		handling.HandleError(lib.NewValidationError("file", "must be sent as multipart/form-data"), "Invalid upload", ar.logger, w)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		handling.HandleError(lib.NewValidationError("file", "is required"), "Invalid upload", ar.logger, w)
		return
	}
	defer file.Close()

	url, err := ar.storageService.UploadProductImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		handling.HandleError(err, "Unable to upload image", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]string{"url": url}),
		gecho.WithMessage("Image uploaded successfully"),
		gecho.Send(),
	)
}
