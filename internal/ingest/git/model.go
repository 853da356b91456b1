package git

import "strings"

// Source locates a file inside a git repository
type Source struct {
	// Location is a local repository path or a remote URL
	Location string `json:"location"`
	// Path of the file relative to the repository root
	Path string `json:"path"`
	// Ref is a commit hash, tag or remote-tracking branch (origin/main).
	// Empty means HEAD.
	Ref string `json:"ref,omitempty"`
}

// IsRemote reports whether Location has to be cloned rather than opened
func (s Source) IsRemote() bool {
	return strings.Contains(s.Location, "://") || strings.HasPrefix(s.Location, "git@")
}

// File is the content of a file read from a specific commit
type File struct {
	Path   string `json:"path"`
	Commit string `json:"commit"`
	// Origin is the remote the repository came from, if known
	Origin string `json:"origin,omitempty"`
	Data   []byte `json:"-"`
}
