// Package mapper turns a validated, matched notification into the normalized
// ticket content submitted to the tracker.
package mapper

import (
	"fmt"
	"sort"
	"strings"

	"legalbridge.app/bridge/internal/adf"
	"legalbridge.app/bridge/internal/model"
)

// PlaceholderSummary is substituted when the campaign has no usable title.
// The summary must never be empty.
const PlaceholderSummary = "Untitled Campaign"

// TicketMapper builds ticket content for a fixed project/issue-type pair.
// Mapping is deterministic and total: any well-formed notification produces
// valid content, missing optional fields are simply omitted.
type TicketMapper struct {
	projectKey string
	issueType  string
}

func NewTicketMapper(projectKey, issueType string) *TicketMapper {
	return &TicketMapper{projectKey: projectKey, issueType: issueType}
}

func (m *TicketMapper) Map(n *model.Notification) *model.TicketContent {
	summary := n.Title()
	if summary == "" {
		summary = PlaceholderSummary
	}

	return &model.TicketContent{
		Summary:     summary,
		Description: m.description(summary, referenceLinks(n)),
		ProjectKey:  m.projectKey,
		IssueType:   m.issueType,
	}
}

type referenceLink struct {
	label string
	url   string
}

// referenceLinks collects every non-empty URL property: the well-known
// reference properties first in their canonical order, then any remaining
// URL-typed properties sorted by name so output stays deterministic.
func referenceLinks(n *model.Notification) []referenceLink {
	var links []referenceLink
	seen := make(map[string]bool)

	for _, name := range model.ReferenceProperties {
		if url, ok := n.URLProperty(name); ok {
			links = append(links, referenceLink{label: referenceLabel(name), url: url})
			seen[name] = true
		}
	}

	var extra []string
	for name, prop := range n.Properties {
		if !seen[name] && prop.Kind == model.PropertyKindURL && prop.URL != "" {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		url, _ := n.URLProperty(name)
		links = append(links, referenceLink{label: referenceLabel(name), url: url})
	}

	return links
}

// referenceLabel derives a human label from a property name by trimming a
// trailing URL suffix: "Final Copy URL" -> "Final Copy", "CopyUrl" -> "Copy".
func referenceLabel(name string) string {
	for _, suffix := range []string{" URL", "URL", " Url", "Url"} {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != name && trimmed != "" {
			return strings.TrimSpace(trimmed)
		}
	}
	return name
}

func (m *TicketMapper) description(campaignName string, links []referenceLink) *adf.Doc {
	content := []adf.Node{
		adf.Heading(3, adf.Text("Campaign Legal Review Request")),
		adf.Paragraph(adf.Text(fmt.Sprintf("Campaign %q is ready for legal and compliance review.", campaignName))),
	}

	if len(links) > 0 {
		items := make([]adf.Node, 0, len(links))
		for _, link := range links {
			items = append(items, adf.ListItem(adf.Paragraph(
				adf.Strong(link.label+": "),
				adf.Link(link.url, link.url),
			)))
		}
		content = append(content,
			adf.Heading(4, adf.Strong("Review Materials:")),
			adf.BulletList(items...),
		)
	}

	content = append(content, adf.Paragraph(
		adf.Em("Please review for compliance with legal requirements and brand guidelines."),
	))

	return adf.NewDoc(content...)
}
