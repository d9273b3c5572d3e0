package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Access     *AccessHandler
	Statements *StatementHandler
	Admin      *AdminHandler
	Health     *HealthHandler
	// RequireEmployee guards statement routes; RequireAdmin guards /admin routes.
	RequireEmployee func(http.Handler) http.Handler
	RequireAdmin    func(http.Handler) http.Handler
	// LoginLimiter throttles /badge and /access. Nil disables throttling.
	LoginLimiter func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Access != nil {
		mux.Handle("/badge", wrap(cfg.LoginLimiter, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Access.ResolveBadge(w, r)
		}))
		mux.Handle("/access", wrap(cfg.LoginLimiter, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Access.VerifyCode(w, r)
		}))
	}

	if cfg.Statements != nil {
		mux.Handle("/employees/", wrap(cfg.RequireEmployee, func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/employees/")
			idPart, suffix, found := strings.Cut(rest, "/")
			if !found || suffix != "statement" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			id, err := strconv.ParseInt(idPart, 10, 64)
			if err != nil || id <= 0 {
				cfg.Statements.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEmployeeID)
				return
			}
			cfg.Statements.Get(w, r, id)
		}))
	}

	if cfg.Admin != nil {
		mux.Handle("/admin/employees", wrap(cfg.RequireAdmin, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Admin.ListEmployees(w, r)
			case http.MethodPost:
				cfg.Admin.RegisterEmployee(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/admin/unlock", wrap(cfg.RequireAdmin, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Admin.Unlock(w, r)
		}))
		mux.Handle("/admin/entries", wrap(cfg.RequireAdmin, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Admin.ListEntries(w, r)
			case http.MethodPost:
				cfg.Admin.PostEntry(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/admin/entries/export", wrap(cfg.RequireAdmin, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Admin.ExportEntries(w, r)
		}))
	}

	if cfg.Health != nil {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				methodNotAllowed(w, http.MethodGet, http.MethodHead)
				return
			}
			cfg.Health.Check(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func wrap(middleware func(http.Handler) http.Handler, fn http.HandlerFunc) http.Handler {
	if middleware == nil {
		return fn
	}
	return middleware(fn)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
