package mcp

// ListPhotosInput represents input for the list_photos tool
type ListPhotosInput struct{}

// ListPhotosOutput represents output from the list_photos tool
type ListPhotosOutput struct {
	Photos []PhotoInfo `json:"photos"`
	Total  int         `json:"total"`
}

// PhotoInfo represents a single photo in tool output
type PhotoInfo struct {
	URL      string `json:"url"`
	Source   string `json:"source"`
	Filename string `json:"filename,omitempty"`
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
}

// LibraryStatusInput represents input for the library_status tool
type LibraryStatusInput struct{}

// LibraryStatusOutput represents output from the library_status tool
type LibraryStatusOutput struct {
	Source        string `json:"source"`
	Authenticated bool   `json:"authenticated"`
	PhotoCount    int    `json:"photo_count"`
	LastUpdated   int64  `json:"last_updated,omitempty"`
	AgeSeconds    int64  `json:"age_seconds,omitempty"`
	Stale         bool   `json:"stale"`
}

// CreateSessionInput represents input for the create_picker_session tool
type CreateSessionInput struct{}

// CreateSessionOutput represents output from the create_picker_session tool
type CreateSessionOutput struct {
	SessionID    string `json:"session_id"`
	PickerURI    string `json:"picker_uri"`
	PollInterval string `json:"poll_interval,omitempty"`
}

// PollSessionInput represents input for the poll_picker_session tool
type PollSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"id of the picker session to poll"`
}

// PollSessionOutput represents output from the poll_picker_session tool
type PollSessionOutput struct {
	SessionID     string `json:"session_id"`
	MediaItemsSet bool   `json:"media_items_set"`
	PollInterval  string `json:"poll_interval,omitempty"`
}

// FetchPhotosInput represents input for the fetch_picker_photos tool
type FetchPhotosInput struct {
	SessionID string `json:"session_id" jsonschema:"id of the completed picker session"`
}

// FetchPhotosOutput represents output from the fetch_picker_photos tool
type FetchPhotosOutput struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}
