package detection

type StreamError struct {
	Error string `json:"error"`
}
