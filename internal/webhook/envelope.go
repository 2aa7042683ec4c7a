package webhook

// Envelope is the response body the calling platform expects. Exactly one
// field set is populated per response:
//
//	with a call id:    {"results": [{"toolCallId": id, "result"|"error": s}]}
//	without a call id: {"result": s} or {"error": s}
//
// The envelope is always delivered with HTTP 200; failures travel in-band.
// Result and Error are pointers so that an empty-string tool result still
// serializes with an explicit "result" key: the platform distinguishes
// "succeeded with empty output" from "no outcome at all".
type Envelope struct {
	Results []EnvelopeResult `json:"results,omitempty"`
	Result  *string          `json:"result,omitempty"`
	Error   *string          `json:"error,omitempty"`
}

// EnvelopeResult correlates one outcome with the originating tool call.
type EnvelopeResult struct {
	ToolCallID string  `json:"toolCallId"`
	Result     *string `json:"result,omitempty"`
	Error      *string `json:"error,omitempty"`
}

// SuccessEnvelope builds the envelope for a formatted tool result.
func SuccessEnvelope(callID, result string) Envelope {
	if callID == "" {
		return Envelope{Result: &result}
	}
	return Envelope{Results: []EnvelopeResult{{ToolCallID: callID, Result: &result}}}
}

// FailureEnvelope builds the envelope for a failed invocation.
func FailureEnvelope(callID, message string) Envelope {
	if callID == "" {
		return Envelope{Error: &message}
	}
	return Envelope{Results: []EnvelopeResult{{ToolCallID: callID, Error: &message}}}
}

// NoopEnvelope builds the envelope for a non-actionable message. No tool is
// invoked and no downstream call is made.
func NoopEnvelope(marker string) Envelope {
	return Envelope{Result: &marker}
}
