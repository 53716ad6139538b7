package domain

// CatalogEntry is one usable movie row. ID is its position in the catalog.
type CatalogEntry struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Tags  string `json:"tags"`
}

// DisplayMovie is what the UI renders for one recommended title.
type DisplayMovie struct {
	Title       string   `json:"title"`
	PosterURL   *string  `json:"poster_url,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	Overview    *string  `json:"overview,omitempty"`
	Found       bool     `json:"found"`
}

// NotFoundMovie is the placeholder for a title whose metadata lookup
// failed or matched nothing.
func NotFoundMovie(title string) DisplayMovie {
	return DisplayMovie{Title: title, Found: false}
}
