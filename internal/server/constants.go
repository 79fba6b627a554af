package server

import "time"

// HTTP error messages for middleware responses
const (
	ErrMsgUnauthorized    = "Unauthorized"
	ErrMsgTooManyRequests = "Too Many Requests"
)

// Security alert message templates
const (
	SecurityAlertFailedAuth = "SECURITY ALERT: Multiple failed authentication attempts"
	SecurityAlertHighRate   = "SECURITY ALERT: Blocking high request rate"
)

// Log messages for server lifecycle and request handling
const (
	LogMsgServerStarting   = "Server starting"
	LogMsgRequestStarted   = "Request started"
	LogMsgRequestCompleted = "Request completed"
	LogMsgRequestHeaders   = "Request headers"
	LogMsgAuthFailed       = "Authentication failed"
)

// HTTP header names
const (
	HeaderAPIKey         = "X-API-Key"
	HeaderAuthorization  = "Authorization"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderContentType    = "X-Content-Type-Options"
	HeaderFrameOptions   = "X-Frame-Options"
	HeaderXSSProtection  = "X-XSS-Protection"
	HeaderReferrerPolicy = "Referrer-Policy"
)

// QueryParamAPIKey carries the admin key for clients that cannot set
// headers, such as a browser EventSource on /events
const QueryParamAPIKey = "api_key"

// Security header values
const (
	HeaderValueNoSniff              = "nosniff"
	HeaderValueSameOrigin           = "SAMEORIGIN"
	HeaderValueXSSBlock             = "1; mode=block"
	HeaderValueReferrerStrictOrigin = "strict-origin-when-cross-origin"
)

// Rate limiting and alerting thresholds
const (
	DetectorWindow          = 5 * time.Minute
	FailedAuthAlertCount    = 5
	MaxRequestsPerWindow    = 1000
	HighRateLogEvery        = 100
	MaxRequestBodyBytes     = 1 << 20
	ReadHeaderTimeout       = 5 * time.Second
	ShutdownRequestsTimeout = 10 * time.Second
)

// Route paths
const (
	PathWebsocket = "/ws"
	PathEvents    = "/events"
	PathHealthz   = "/healthz"
	PathReadyz    = "/readyz"
	PathMetrics   = "/metrics"
	PathVersion   = "/version"
)

// PublicPaths bypass admin key authentication. Player connections are
// authenticated upstream and identified by headers.
var PublicPaths = []string{
	"/swagger/",
	PathHealthz,
	PathReadyz,
	PathMetrics,
	PathVersion,
	PathWebsocket,
}

// Header redaction marker
const (
	RedactedValue = "[REDACTED]"
)
