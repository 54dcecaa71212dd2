package domain

// SubredditSummary is a catalog entry with its subscriber count.
type SubredditSummary struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// MemePage is one page of search results. After is nil when the fetched
// batch was empty.
type MemePage struct {
	Memes []Meme  `json:"memes"`
	After *string `json:"after"`
}
