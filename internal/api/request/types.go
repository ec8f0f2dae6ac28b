package request

// CommandRequest is the request body for running a chat command
type CommandRequest struct {
	User        string `json:"user"`
	DisplayName string `json:"display_name,omitempty"`
	Channel     string `json:"channel"`
	Scope       string `json:"scope,omitempty"` // defaults to the channel
	Text        string `json:"text"`            // e.g. "!scan"
}
