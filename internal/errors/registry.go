package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// Error codes.
const (
	CodeIncompleteApp    = "M001"
	CodeRootNotElement   = "M002"
	CodeUnknownApp       = "M003"
	CodeVersionMismatch  = "M020"
	CodeMalformedFrame   = "M021"
	CodeUnknownNode      = "M022"
	CodeSessionNotFound  = "M040"
	CodeServerBusy       = "M041"
	CodeStoreUnavailable = "M042"
	CodeConfigNotFound   = "M101"
	CodeConfigParse      = "M102"
	CodeInvalidAddress   = "M103"
	CodeInvalidDuration  = "M104"
	CodeInvalidLimit     = "M105"
	CodeUnknownStore     = "M106"
	CodeRedisAddress     = "M107"
	CodeS3Bucket         = "M108"
	CodeListenFailed     = "M201"
	CodeRenderFailed     = "M202"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (M001-M019)
	// ============================================

	CodeIncompleteApp: {
		Category:   CategoryRuntime,
		Message:    "Incomplete application",
		Detail:     "An application needs Init, Update and View before it can start.",
		Suggestion: "Set all three fields of runtime.App.",
	},
	CodeRootNotElement: {
		Category: CategoryRuntime,
		Message:  "Root is not an element",
		Detail:   "The runtime renders into the children of an element node.",
	},
	CodeUnknownApp: {
		Category:   CategoryRuntime,
		Message:    "Unknown application",
		Detail:     "No built-in application has this name.",
		Suggestion: "Run 'morphd serve --help' to list the available applications.",
	},

	// ============================================
	// Protocol Errors (M020-M039)
	// ============================================

	CodeVersionMismatch: {
		Category:   CategoryProtocol,
		Message:    "Protocol version mismatch",
		Detail:     "The client speaks a protocol major version the server does not.",
		Suggestion: "Reload the page to fetch the current client.",
	},
	CodeMalformedFrame: {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A frame header or payload could not be decoded.",
	},
	CodeUnknownNode: {
		Category: CategoryProtocol,
		Message:  "Unknown node",
		Detail:   "An event named a node id the session document does not hold. The client mirror is probably stale.",
	},

	// ============================================
	// Session Errors (M040-M059)
	// ============================================

	CodeSessionNotFound: {
		Category: CategorySession,
		Message:  "Session not found",
		Detail:   "The session id is unknown or its resume window has passed.",
	},
	CodeServerBusy: {
		Category:   CategorySession,
		Message:    "Server busy",
		Detail:     "The session limit for the server or the client address has been reached.",
		Suggestion: "Raise session.max_sessions or session.max_sessions_per_ip.",
	},
	CodeStoreUnavailable: {
		Category: CategorySession,
		Message:  "Session store unavailable",
		Detail:   "The session store could not be reached.",
	},

	// ============================================
	// Config Errors (M100-M199)
	// ============================================

	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Detail:     "The configuration file does not exist or cannot be read.",
		Suggestion: "Check the --config path.",
	},
	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The configuration file is not valid JSON or YAML.",
	},
	CodeInvalidAddress: {
		Category:   CategoryConfig,
		Message:    "Invalid listen address",
		Detail:     "The address must have the form host:port.",
		Suggestion: "Use \":8080\" to listen on every interface.",
	},
	CodeInvalidDuration: {
		Category:   CategoryConfig,
		Message:    "Invalid duration",
		Detail:     "Durations must be non-negative.",
		Suggestion: "Write durations like \"30s\" or \"5m\".",
	},
	CodeInvalidLimit: {
		Category: CategoryConfig,
		Message:  "Invalid limit",
		Detail:   "Sizes and session limits must not be negative.",
	},
	CodeUnknownStore: {
		Category:   CategoryConfig,
		Message:    "Unknown session store",
		Detail:     "store.driver must be \"memory\", \"redis\" or \"s3\".",
		Suggestion: "Remove the store section to keep sessions in memory.",
	},
	CodeRedisAddress: {
		Category:   CategoryConfig,
		Message:    "Redis address required",
		Detail:     "The redis store needs store.redis.addr.",
		Suggestion: "Set MORPH_REDIS_ADDR or store.redis.addr.",
	},
	CodeS3Bucket: {
		Category:   CategoryConfig,
		Message:    "S3 bucket required",
		Detail:     "The s3 store needs store.s3.bucket.",
		Suggestion: "Set MORPH_S3_BUCKET or store.s3.bucket.",
	},

	// ============================================
	// CLI Errors (M200-M299)
	// ============================================

	CodeListenFailed: {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
	CodeRenderFailed: {
		Category: CategoryCLI,
		Message:  "Render failed",
		Detail:   "The application view could not be rendered to HTML.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
