package checks

// RootResponse is the body of GET {base}/.
type RootResponse struct {
	Message string `json:"message"`
}

// StatusCreate is the body of POST {base}/status.
type StatusCreate struct {
	ClientName string `json:"client_name"`
}

// StatusRecord is one status record as returned by the service.
//
// Timestamp is kept as the raw string: the service emits naive ISO-8601
// times without a zone, which time.Time cannot decode.
type StatusRecord struct {
	ID         string `json:"id"`
	ClientName string `json:"client_name"`
	Timestamp  string `json:"timestamp"`
}
