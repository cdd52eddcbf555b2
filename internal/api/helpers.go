package api

import (
	"encoding/json/v2"
	"io"
	"net/http"
	"strconv"

	"github.com/bookhaven/bookhaven-server/internal/store"
)

// decodeBody unmarshals a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	defer io.Copy(io.Discard, r.Body) //nolint:errcheck
	return json.UnmarshalRead(r.Body, dst)
}

// parsePageParams reads offset/limit query parameters. Out-of-range values
// are normalized by the store layer.
func parsePageParams(r *http.Request) store.PageParams {
	var page store.PageParams
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Limit = n
		}
	}
	return page
}
