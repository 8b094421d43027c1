package hackernews

// Item represents the raw item record returned by the API. Almost every
// field is optional on the wire; absent numerics decode to zero values.
type Item struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	By          string  `json:"by"`
	Time        int64   `json:"time"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Text        string  `json:"text"`
	Score       int     `json:"score"`
	Descendants int     `json:"descendants"`
	Kids        []int64 `json:"kids"`
	Parent      int64   `json:"parent"`
	Deleted     bool    `json:"deleted"`
	Dead        bool    `json:"dead"`
}
