package models

// ProfileResponse wraps a profile lookup. Profile is null when no profile
// is available, which is a normal state and not an error.
type ProfileResponse struct {
	Profile *ProfileView `json:"profile"`
}

// RegenerateResponse is returned after a successful regeneration.
type RegenerateResponse struct {
	Version int64       `json:"version"`
	Profile ProfileView `json:"profile"`
}

// VersionsResponse lists a user's profile history, oldest first.
type VersionsResponse struct {
	Versions []ProfileVersion `json:"versions"`
	Length   int              `json:"length"`
}

// DocumentResponse wraps a single document.
type DocumentResponse struct {
	Document Document `json:"document"`
}

// DocumentsResponse lists documents of a single user.
type DocumentsResponse struct {
	Documents []Document `json:"documents"`
	Length    int        `json:"length"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AppVersionResponse is returned by GET /api/version.
type AppVersionResponse struct {
	Version string `json:"version"`
	Date    string `json:"build_date,omitempty"`
	Commit  string `json:"build_commit,omitempty"`
}
