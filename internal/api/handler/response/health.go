package response

type Health struct {
	Status      string `json:"status"`
	Hub         string `json:"hub"`
	Connections int    `json:"connections"`
}
