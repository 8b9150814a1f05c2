package model

// FileEvent is emitted when a snapshot file in the watched directory changes
type FileEvent struct {
	Path      string
	Operation string
}

// InteractionState holds the user-facing state of the interactive chart
type InteractionState struct {
	IsLoading      bool
	LoadingMessage string
	StatusMessage  string
	ShowHelp       bool
	IsPaused       bool
	ForceRefresh   bool
	Filter         FilterRange
}
