package domain

import "strings"

// imageSuffixes are the static-image URL endings eligible for scoring.
var imageSuffixes = []string{".jpg", ".png", ".gif"}

// Meme is an image post plus its relevance score for one search.
type Meme struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Subreddit string  `json:"subreddit"`
	Sentiment float64 `json:"sentiment"`
}

// Post is a Reddit submission as returned by a post source.
type Post struct {
	ID string
	// Fullname is the "t3_" prefixed identifier Reddit accepts as an
	// "after" cursor.
	Fullname string
	Title    string
	Selftext string
	URL      string
	// SubredditPrefixed is the display name, e.g. "r/funny".
	SubredditPrefixed string
}

// IsImage reports whether the post links straight to a static image.
// The check is a case-sensitive suffix match on the URL.
func (p Post) IsImage() bool {
	return IsImageURL(p.URL)
}

// ScoringText is the text sent to the relevance scorer.
func (p Post) ScoringText() string {
	return p.Title + " " + p.Selftext
}

// ToMeme converts the post into a result carrying the given score.
func (p Post) ToMeme(score float64) Meme {
	return Meme{
		ID:        p.ID,
		Title:     p.Title,
		URL:       p.URL,
		Subreddit: p.SubredditPrefixed,
		Sentiment: score,
	}
}

// IsImageURL reports whether url ends in one of the image suffixes.
func IsImageURL(url string) bool {
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(url, suffix) {
			return true
		}
	}
	return false
}
