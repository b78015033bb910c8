// Package api provides the HTTP client for the RAG chatbot backend.
package api

// GJSON paths for extracting values from backend responses.
const (
	// PathSessionID is the session identifier in login and rotation responses.
	PathSessionID = "session_id"

	// PathMessage is the status message in reindex and upload responses.
	PathMessage = "message"

	// PathSources is the filename array in the source listing response.
	PathSources = "sources"

	// PathDetail is the error description FastAPI puts in non-2xx bodies.
	PathDetail = "detail"
)
