package algolia

// queryBody is the JSON body of a query request.
type queryBody struct {
	Params string `json:"params"`
}

// errorResponse is the error payload returned by the API.
type errorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
