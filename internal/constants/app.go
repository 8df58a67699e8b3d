package constants

import (
	"time"
)

// Accepted document formats
var (
	// AllowedExtensions - extensions accepted at staging/collection time.
	// Matched case-insensitively against the text after the final ".".
	AllowedExtensions = []string{"pdf", "pptx", "xlsx", "xls", "ppt"}
)

// Selection display
const (
	// DefaultFolderGroup - group key used for entries staged without a folder
	DefaultFolderGroup = "Files"

	// SizeMiB - threshold between KB and MB formatting in size summaries
	SizeMiB = 1024 * 1024

	// LargeFileWarningBytes - files above this are flagged at stage time (50 MB)
	// The backend accepts them but uploads are slow and may time out.
	LargeFileWarningBytes = 50 * 1024 * 1024
)

// Upload batch pacing
const (
	// InterRequestDelay - pause between consecutive uploads in a batch (500ms)
	// Client-side throttle; never applied before the first entry.
	InterRequestDelay = 500 * time.Millisecond

	// DisplayResetDelay - how long a finished batch stays visible before
	// the pipeline returns to Idle (3 seconds)
	DisplayResetDelay = 3 * time.Second

	// MaxFailuresShown - failures listed individually in the batch summary;
	// the remainder is summarized by count
	MaxFailuresShown = 3
)

// Upload messages
const (
	// EmptyFileMessage - failure recorded for zero-byte payloads
	EmptyFileMessage = "File appears to be empty when read"

	// UnknownErrorMessage - failure text when no message can be extracted
	UnknownErrorMessage = "Unknown error"
)

// Chat
const (
	// ChatGreeting - first assistant message of every transcript
	ChatGreeting = "Hello! I am your AI-assistant. You can ask me about your uploaded documents. What would you like to know?"

	// ChatErrorMessage - assistant message appended when a question fails
	ChatErrorMessage = "Error when handling question. Try again later."

	// ChatHistoryLimit - transcript messages shown by 'chat history'
	ChatHistoryLimit = 200

	// MarkdownWrapWidth - word wrap for rendered answers
	MarkdownWrapWidth = 100
)

// Retry configuration
const (
	// MaxRetries - maximum number of retries for transient HTTP errors
	MaxRetries = 4

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (15s)
	// Exponential backoff with jitter caps at this value
	RetryMaxDelay = 15 * time.Second
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// API rate limiting
const (
	// APIRatePerSec - client-side request rate toward the backend
	APIRatePerSec = 10.0

	// APIBurstCapacity - requests allowed in a burst before throttling
	APIBurstCapacity = 20.0
)

// API and Context Timeouts
const (
	// APIContextTimeout - default timeout for API operations (30 seconds)
	APIContextTimeout = 30 * time.Second

	// APIConnectionTestTimeout - timeout for testing API connectivity (10 seconds)
	APIConnectionTestTimeout = 10 * time.Second

	// UploadRequestTimeout - per-file upload timeout (10 minutes)
	UploadRequestTimeout = 10 * time.Minute
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPClientTimeout - overall timeout for the API client (5 minutes)
	HTTPClientTimeout = 300 * time.Second
)

// Rate Limiter
const (
	// RateLimitWarningThreshold - delay threshold to show warning (2 seconds)
	RateLimitWarningThreshold = 2 * time.Second

	// RateLimitWarningInterval - minimum interval between warnings (10 seconds)
	RateLimitWarningInterval = 10 * time.Second
)

// Local storage
const (
	// DatabaseFileName - sqlite file under the config directory
	DatabaseFileName = "docassist.db"

	// BatchHistoryLimit - rows shown by 'upload history'
	BatchHistoryLimit = 20
)

// Dev backend
const (
	// DevBackendAddr - default listen address for 'docassist dev-backend'
	DevBackendAddr = ":8080"

	// DevBackendBodyLimit - maximum request body accepted by the dev backend
	DevBackendBodyLimit = "64M"
)
