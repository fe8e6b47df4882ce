package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonLLMGenerate     ReasonCode = "llm_generate"
	ReasonLLMEmptyReply   ReasonCode = "llm_empty_reply"
	ReasonLLMRateLimit    ReasonCode = "llm_rate_limit"
	ReasonLLMUnconfigured ReasonCode = "llm_unconfigured"

	ReasonTranscribe    ReasonCode = "transcribe_failed"
	ReasonMediaDownload ReasonCode = "media_download"

	ReasonSessionStore ReasonCode = "session_store"

	ReasonTransportInvalidSignature ReasonCode = "webhook_invalid_signature"
	ReasonTransportSend             ReasonCode = "transport_send"
)
