// Package metrics provides Prometheus metrics for the users store and the local
// users API.
//
// Each Registry owns its own prometheus.Registry, so several stores or servers
// in one process (or in one test binary) never collide on registration.
// NewStoreRegistry carries the store_* collectors and NewAPIRegistry the api_*
// collectors, so a scrape never shows a gauge nothing updates.
//
// # Metrics
//
//   - userdesk_store_transitions_total: Counter of applied store transitions (labels: op, phase)
//   - userdesk_store_operation_duration_seconds: Histogram of settled operations (labels: op, phase)
//   - userdesk_store_users: Gauge of the collection size after the last transition
//   - userdesk_api_requests_total: Counter of API requests (labels: method, route, status)
//   - userdesk_api_request_duration_seconds: Histogram of API latency (labels: method, route)
//   - userdesk_api_users: Gauge of users held by the API
//
// # Label Conventions
//
//   - op: fetch, create, update, delete
//   - phase: pending, fulfilled, rejected
//   - route: the chi route pattern (/users/{id}), never the raw path
//
// # Usage
//
//	storeReg := metrics.NewStoreRegistry()
//	st := store.New(client, store.WithObserver(storeReg.StoreObserver()))
//
//	apiReg := metrics.NewAPIRegistry()
//	r := chi.NewRouter()
//	r.Use(apiReg.Middleware)
//	r.Handle("/metrics", apiReg.Handler())
package metrics
