package router

import (
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"BACK_FPA_GO/internal/admin"
	"BACK_FPA_GO/internal/community"
	"BACK_FPA_GO/internal/content"
	"BACK_FPA_GO/internal/events"
	"BACK_FPA_GO/internal/payments"
	"BACK_FPA_GO/internal/utils"
)

type Deps struct {
	Payments  *payments.Handler
	Events    *events.Handler
	Content   *content.Handler
	Community *community.Handler
	Admin     *admin.Handler
}

// New assembles the full route table: public endpoints, the
// authenticated admin subrouter, health and metrics.
func New(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(utils.CorsMiddleware)

	d.Payments.RegisterRoutes(r)
	d.Events.RegisterRoutes(r)
	d.Content.RegisterRoutes(r)
	d.Community.RegisterRoutes(r)

	protected := d.Admin.RegisterRoutes(r)
	d.Events.RegisterAdminRoutes(protected)
	d.Content.RegisterAdminRoutes(protected)
	d.Community.RegisterAdminRoutes(protected)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", health(r)).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodOptions {
			utils.CorsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})).ServeHTTP(w, req)
			return
		}
		utils.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

type routeInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// health reports the server time and the registered route table.
func health(router *mux.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()

		routes := make([]routeInfo, 0)
		_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
			path, err := route.GetPathTemplate()
			if err != nil {
				return nil
			}
			methods, err := route.GetMethods()
			if err != nil || len(methods) == 0 {
				return nil
			}
			for _, method := range methods {
				routes = append(routes, routeInfo{Method: method, Path: path})
			}
			return nil
		})

		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Path == routes[j].Path {
				return routes[i].Method < routes[j].Method
			}
			return routes[i].Path < routes[j].Path
		})

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"message":    "online",
			"utc_now":    now.Format(time.RFC3339),
			"routes":     routes,
			"routeCount": len(routes),
		})
	}
}
