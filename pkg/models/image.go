package models

// Image is the record the gallery backend returns for a created image.
type Image struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	TS          int64  `json:"ts,omitempty"`
}

// NewImage is the body posted to the images resource.
type NewImage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// ImagePage is one page of the gallery listing, After is the cursor of the next page.
type ImagePage struct {
	Data  []Image `json:"data"`
	After *string `json:"after"`
}
