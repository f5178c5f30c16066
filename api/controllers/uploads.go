package controllers

import (
	"net/http"

	"github.com/sahilmehra/campustrade-backend/api/responses"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
	"github.com/sahilmehra/campustrade-backend/pkg/storage/local"
)

// UploadServe streams a previously stored upload back to the client.
func UploadServe(store *local.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "uploads store unavailable"))
			return
		}

		path, err := store.Open(r.URL.Path)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "upload not found"))
			return
		}
		http.ServeFile(w, r, path)
	}
}
