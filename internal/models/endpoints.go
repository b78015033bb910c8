// Package models contains data types and endpoint constants for the RAG
// chatbot backend.
package models

import "time"

// Endpoint paths on the backend, joined to the configured base URL.
const (
	EndpointLogin        = "/login"
	EndpointChat         = "/chat"
	EndpointSessionID    = "/session_id"
	EndpointReindex      = "/index"
	EndpointSources      = "/rag_sources"
	EndpointUpload       = "/upload_files"
	EndpointDeleteSource = "/delete_rag_source"
)

// Per-endpoint request timeouts. Chat and upload wait on retrieval plus
// generation; reindexing rebuilds the whole vector store and can run for
// minutes.
const (
	TimeoutLogin        = 5 * time.Second
	TimeoutChat         = 120 * time.Second
	TimeoutSessionID    = 50 * time.Second
	TimeoutReindex      = 500 * time.Second
	TimeoutSources      = 10 * time.Second
	TimeoutUpload       = 120 * time.Second
	TimeoutDeleteSource = 30 * time.Second
)

// EndpointTimeout returns the request timeout for an endpoint path.
// Unknown paths get the chat timeout, the most generous interactive one.
func EndpointTimeout(endpoint string) time.Duration {
	switch endpoint {
	case EndpointLogin:
		return TimeoutLogin
	case EndpointChat:
		return TimeoutChat
	case EndpointSessionID:
		return TimeoutSessionID
	case EndpointReindex:
		return TimeoutReindex
	case EndpointSources:
		return TimeoutSources
	case EndpointUpload:
		return TimeoutUpload
	case EndpointDeleteSource:
		return TimeoutDeleteSource
	default:
		return TimeoutChat
	}
}

// DefaultHeaders returns the default headers for backend requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      "ragchat/0.1.0",
	}
}

// JSONHeaders returns headers for endpoints taking a JSON body
func JSONHeaders() map[string]string {
	headers := DefaultHeaders()
	headers["Content-Type"] = "application/json"
	return headers
}
