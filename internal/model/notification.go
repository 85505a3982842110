package model

// PropertyKind discriminates the variants a campaign-store property can take.
// The validator is the only place that converts untyped JSON into these; the
// rest of the pipeline never touches raw payload maps.
type PropertyKind string

const (
	PropertyKindTitle       PropertyKind = "title"
	PropertyKindStatus      PropertyKind = "status"
	PropertyKindURL         PropertyKind = "url"
	PropertyKindUnsupported PropertyKind = "unsupported"
)

// Property is a tagged value extracted from the webhook payload. Exactly one
// of the value fields is meaningful, selected by Kind.
type Property struct {
	Kind  PropertyKind
	Title string // PropertyKindTitle
	Label string // PropertyKindStatus
	URL   string // PropertyKindURL
}

// Notification is a validated inbound webhook body. Constructed fresh per
// request and discarded when the request completes.
type Notification struct {
	RecordID   string
	Properties map[string]Property
}

// Title returns the campaign name, or "" when the Name property carries no text.
func (n *Notification) Title() string {
	if p, ok := n.Properties[PropertyName]; ok && p.Kind == PropertyKindTitle {
		return p.Title
	}
	return ""
}

// StatusLabel returns the current status label, or "" when absent.
func (n *Notification) StatusLabel() string {
	if p, ok := n.Properties[PropertyStatus]; ok && p.Kind == PropertyKindStatus {
		return p.Label
	}
	return ""
}

// URLProperty returns the URL value of the named property when present and non-empty.
func (n *Notification) URLProperty(name string) (string, bool) {
	p, ok := n.Properties[name]
	if !ok || p.Kind != PropertyKindURL || p.URL == "" {
		return "", false
	}
	return p.URL, true
}

// Well-known property names in the campaign store schema.
const (
	PropertyName      = "Name"
	PropertyStatus    = "Status"
	PropertyCopyURL   = "Final Copy URL"
	PropertyDesignURL = "Final Design URL"
)

// ReferenceProperties lists the URL-typed properties the mapper renders as
// labeled links, in the order they appear in the ticket description.
var ReferenceProperties = []string{PropertyCopyURL, PropertyDesignURL}
