package model

import "legalbridge.app/bridge/internal/adf"

// TicketContent is the normalized ticket ready for submission to the tracker.
// Produced deterministically by the mapper: same notification, same content.
type TicketContent struct {
	Summary     string
	Description *adf.Doc
	ProjectKey  string
	IssueType   string
}

// TicketResult is the outcome of a successful create-issue call.
type TicketResult struct {
	Key string
	URL string
}
