package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	applog "mise/internal/log"
	"mise/internal/storage"
)

const multipartOverhead = 1 << 20

var nowFunc = time.Now

type photoResponse struct {
	Object storage.Object `json:"object"`
	Target string         `json:"target"`
	StepID string         `json:"step_id,omitempty"`
}

func recipePhotos(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	switch r.Method {
	case http.MethodGet:
		listPhotos(w, r, kitchenID, recipeID)
	case http.MethodPost:
		uploadPhoto(w, r, kitchenID, recipeID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listPhotos(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	if _, err := records.GetRecipe(r.Context(), kitchenID, recipeID); err != nil {
		writeStoreError(w, r, err, "load recipe")
		return
	}
	photos, err := objects.List(r.Context(), storage.RecipePrefix(kitchenID, recipeID))
	if err != nil {
		writeStoreError(w, r, err, "list recipe photos")
		return
	}
	if photos == nil {
		photos = []storage.Object{}
	}
	writeJSON(w, http.StatusOK, photos)
}

// uploadPhoto accepts a multipart "photo" file. With a "step_id" field the photo
// is attached to that step, otherwise it becomes the recipe cover.
func uploadPhoto(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(storage.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStoreError(w, r, storage.ErrTooLarge, "upload photo")
			return
		}
		applog.Debug(r.Context(), "invalid multipart upload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "expected a multipart form with a photo field")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := file.Read(sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			writeStoreError(w, r, err, "upload photo")
			return
		}
	}
	if err := storage.ValidateImage(contentType, header.Size); err != nil {
		writeStoreError(w, r, err, "upload photo")
		return
	}

	stepID := strings.TrimSpace(r.FormValue("step_id"))
	if stepID != "" {
		if _, err := records.GetStep(r.Context(), kitchenID, recipeID, stepID); err != nil {
			writeStoreError(w, r, err, "load recipe step")
			return
		}
	} else if _, err := records.GetRecipe(r.Context(), kitchenID, recipeID); err != nil {
		writeStoreError(w, r, err, "load recipe")
		return
	}

	key := storage.RecipePhotoKey(kitchenID, recipeID, header.Filename, nowFunc())
	if stepID != "" {
		key = storage.StepPhotoKey(kitchenID, recipeID, stepID, header.Filename, nowFunc())
	}

	object, err := objects.Upload(r.Context(), key, contentType, file)
	if err != nil {
		writeStoreError(w, r, err, "upload photo")
		return
	}

	response := photoResponse{Object: object, Target: "recipe"}
	if stepID != "" {
		_, err = records.SetStepPhoto(r.Context(), kitchenID, recipeID, stepID, object.Key)
		response.Target = "step"
		response.StepID = stepID
	} else {
		_, err = records.SetRecipePhoto(r.Context(), kitchenID, recipeID, object.Key)
	}
	if err != nil {
		writeStoreError(w, r, err, "attach photo")
		return
	}

	applog.Info(r.Context(), "photo uploaded", "recipe", recipeID, "key", object.Key, "size", object.Size)
	writeJSON(w, http.StatusCreated, response)
}
