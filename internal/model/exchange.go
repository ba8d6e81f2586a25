package model

type Exchange struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	ScreenshotText string    `json:"screenshot_text"`
	DraftText      string    `json:"draft_text"`
	GeneratedReply string    `json:"generated_reply"`
	FinalReply     string    `json:"final_reply,omitempty"`
	Tone           string    `json:"tone,omitempty"`
	Embedding      []float32 `json:"-"`
	Ctime          int64     `json:"ctime"`
	Mtime          int64     `json:"mtime"`
}

// QueryText is the text an exchange is embedded and searched by.
func (e *Exchange) QueryText() string {
	return JoinQuery(e.ScreenshotText, e.DraftText)
}
