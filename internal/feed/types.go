package feed

// Sector labels for discovered stories. The discovery prompt instructs the
// provider to use exactly these values, but nothing downstream enforces it.
const (
	SectorIT     = "IT"
	SectorEnergy = "Oil & Gas"
	SectorVision = "Vision 2030"
)

// Article is one discovered news item. Display fields come from the
// provider verbatim; only the ID is assigned locally.
type Article struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	Date    string `json:"date"`
	Region  string `json:"region"`
	Sector  string `json:"sector,omitempty"`
}

// Post status values. A post moves draft -> published; there is no
// transition out of published.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// GeneratedPost is a social post drafted from an article. ArticleID is a
// non-owning reference: discovery replaces the article collection wholesale,
// so the referenced article may no longer exist. OriginalArticleTitle is a
// snapshot taken at draft time and never updated.
type GeneratedPost struct {
	ID                   string `json:"id"`
	ArticleID            string `json:"articleId"`
	OriginalArticleTitle string `json:"originalArticleTitle"`
	Content              string `json:"content"`
	Status               string `json:"status"`
	CreatedAt            int64  `json:"createdAt"`
	LastEditedAt         int64  `json:"lastEditedAt"`
}
