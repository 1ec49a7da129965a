package http

import (
	"errors"
	"net/http"

	"tempo/internal/auth"
	"tempo/internal/log"
	"tempo/internal/observability"
)

const authRealm = `Basic realm="tempo", charset="UTF-8"`

// protect gates h behind HTTP Basic authentication. Only the password part is
// checked; the user name is ignored.
func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		_, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", authRealm)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "password required"})
			return
		}

		valid, err := s.verifier.VerifySecret(ctx, password)
		switch {
		case errors.Is(err, auth.ErrSecretNotSet):
			writeJSON(w, http.StatusForbidden, errorBody{Error: "no password configured, run `tempo password set` first"})
			return
		case err != nil:
			s.writeError(w, r, err)
			return
		case !valid:
			observability.RecordAuthFailure("http")
			log.FromContext(ctx).WarnContext(ctx, "Wrong password",
				log.FieldComponent, log.ComponentAuth,
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldPath, r.URL.Path)
			w.Header().Set("WWW-Authenticate", authRealm)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "wrong password"})
			return
		}

		h(w, r)
	})
}
