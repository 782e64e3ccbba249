package config

const (
	// MaxFolderNameLength is the maximum length for folder names. Limited
	// to 255 to fit in PostgreSQL VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxCaseTitleLength is the maximum length for case-note titles.
	MaxCaseTitleLength = 255

	// MaxFolderDepth is the maximum number of folder levels, root
	// included. Root, child, grandchild; a fourth level is rejected.
	MaxFolderDepth = 3

	// MaxTraversalDepth caps tree walks. The cycle guard is the only
	// structural protection against malformed trees (there is no database
	// constraint), so walks over pathological data must still terminate.
	MaxTraversalDepth = 64
)
