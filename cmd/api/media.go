package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fanfare/internal/store"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const (
	maxReviewPhotoBytes = 5 << 20 // 5mb per upload
	maxReviewPhotos     = 6
)

// UploadReviewPhoto godoc
//
//	@Summary		Attach a photo to a review
//	@Description	Author-only multipart upload; the stored URL is appended to the review's media list
//	@Tags			Reviews
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			reviewID	path		int		true	"Review ID"
//	@Param			photo		formData	file	true	"Image file, max 5MB"
//	@Success		201			{object}	map[string]string
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		403			{object}	error	"Forbidden"
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/photos [post]
func (app *application) uploadReviewPhotoHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.parseIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if review.AuthorID != user.ID {
		app.forbiddenResponse(w, r)
		return
	}
	if len(review.MediaURLs) >= maxReviewPhotos {
		app.badRequestResponse(w, r, fmt.Errorf("a review can carry at most %d photos", maxReviewPhotos))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReviewPhotoBytes)
	if err := r.ParseMultipartForm(maxReviewPhotoBytes); err != nil {
		app.badRequestResponse(w, r, errors.New("photo too large or malformed form"))
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("missing photo field"))
		return
	}
	defer file.Close()

	publicID := fmt.Sprintf("review_%d_%s", reviewID, uuid.New().String())
	photoURL, err := app.uploadToCloudinaryWithID(file, publicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Reviews.AddPhotoURL(r.Context(), reviewID, user.ID, photoURL); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]string{"url": photoURL})
}

// uploadToCloudinaryWithID uploads a file to Cloudinary using a custom public ID.
func (app *application) uploadToCloudinaryWithID(file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		context.Background(), // using a background context for external call
		file,
		uploader.UploadParams{
			Folder:    "reviews",
			PublicID:  publicID,
			Overwrite: api.Bool(false),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

func (app *application) deletePhotoFromCloudinary(photoURL string) error {
	publicID, err := app.extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}

	return nil
}

// Helper function to extract the public ID from the Cloudinary URL
func (app *application) extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part == "upload" && i+1 < len(pathParts) {
			return strings.Join(pathParts[i+1:], "/"), nil
		}
	}

	return "", errors.New("failed to extract public ID from URL")
}
