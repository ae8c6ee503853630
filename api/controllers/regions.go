package controllers

import (
	"net/http"

	"github.com/meridianlabs/storefront-api/api/responses"
	"github.com/meridianlabs/storefront-api/internal/regions"
	"github.com/meridianlabs/storefront-api/pkg/logger"
)

// RegionList returns every active region with its countries.
func RegionList(svc regions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListRegions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"regions": rows})
	}
}
