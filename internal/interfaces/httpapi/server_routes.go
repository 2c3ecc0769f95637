package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/fixtures", handler.ListFixtures)
}

// Admin routes cover the automation surface: the run trigger meant for the
// external cron caller, the config document, the audit log, and fixture
// ingestion.
func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminAPIKey string) {
	mux.Handle("POST /v1/internal/automation/run", RequireAdminKey(adminAPIKey, http.HandlerFunc(handler.RunAutomation)))
	mux.Handle("GET /v1/automation/config", RequireAdminKey(adminAPIKey, http.HandlerFunc(handler.GetAutomationConfig)))
	mux.Handle("POST /v1/automation/config", RequireAdminKey(adminAPIKey, http.HandlerFunc(handler.UpdateAutomationConfig)))
	mux.Handle("GET /v1/automation/logs", RequireAdminKey(adminAPIKey, http.HandlerFunc(handler.ListAutomationLogs)))
	mux.Handle("POST /v1/internal/ingestion/fixtures", RequireAdminKey(adminAPIKey, http.HandlerFunc(handler.IngestFixtures)))
}
