package constants

// Route constants
const (
	WebhookXenditRoute = "/webhooks/xendit"
	HealthRoute        = "/health"
	MetricsRoute       = "/metrics"
	APIRoute           = "/api"
	AdminAPIRoute      = "/v1/admin"
	DocsBasePath       = "/docs/api/"
	OpenAPIFile        = "public/docs/v1/openapi.yml"
)
