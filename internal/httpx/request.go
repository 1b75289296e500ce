package httpx

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestContext is everything a handler reads from the inbound call,
// built once per request.
type RequestContext struct {
	Method    string
	Fields    url.Values
	Identity  Identity
	AJAX      bool
	RequestID string
}

const maxBody = 1 << 20

func newRequestContext(r *http.Request) (RequestContext, error) {
	rc := RequestContext{
		Method:    r.Method,
		Fields:    url.Values{},
		AJAX:      r.Header.Get("X-Requested-With") == "XMLHttpRequest",
		RequestID: middleware.GetReqID(r.Context()),
	}
	rc.Identity, _ = IdentityFrom(r.Context())

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" && r.Body != nil && r.Method != http.MethodGet {
		rc.AJAX = true
		var body map[string]any
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
		if err := dec.Decode(&body); err != nil {
			return rc, newAppError(http.StatusBadRequest, "Invalid request", err)
		}
		for k, v := range body {
			switch t := v.(type) {
			case string:
				rc.Fields.Set(k, t)
			case float64, bool:
				rc.Fields.Set(k, fmt.Sprint(t))
			}
		}
		for k, v := range r.URL.Query() {
			if !rc.Fields.Has(k) {
				rc.Fields[k] = v
			}
		}
		return rc, nil
	}

	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBody)
	}
	if err := r.ParseForm(); err != nil {
		return rc, newAppError(http.StatusBadRequest, "Invalid request", err)
	}
	rc.Fields = r.Form
	return rc, nil
}

func (rc RequestContext) Field(name string) string { return rc.Fields.Get(name) }

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, newAppError(http.StatusBadRequest, "Invalid request", fmt.Errorf("bad %s %q", name, chi.URLParam(r, name)))
	}
	return id, nil
}
