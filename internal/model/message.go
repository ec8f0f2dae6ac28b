package model

// Message is a reply or broadcast rendered by the chat surface
type Message struct {
	Text  string `json:"text,omitempty"`
	Embed *Embed `json:"embed,omitempty"`
}

// Embed is a structured card. Colors are 0xRRGGBB
type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      string  `json:"footer,omitempty"`
}

// Field is a titled block inside an embed
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// TextMessage builds a plain text message
func TextMessage(text string) Message {
	return Message{Text: text}
}

// IsEmpty reports whether there is nothing to send
func (m Message) IsEmpty() bool {
	return m.Text == "" && m.Embed == nil
}

// PlainText flattens the message for text-only surfaces
func (m Message) PlainText() string {
	if m.Embed == nil {
		return m.Text
	}
	out := m.Text
	if out != "" {
		out += "\n"
	}
	out += "**" + m.Embed.Title + "**"
	if m.Embed.Description != "" {
		out += "\n" + m.Embed.Description
	}
	for _, f := range m.Embed.Fields {
		out += "\n" + f.Name + ": " + f.Value
	}
	if m.Embed.Footer != "" {
		out += "\n" + m.Embed.Footer
	}
	return out
}
