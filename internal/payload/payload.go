// Package payload converts untyped webhook bodies into validated notifications.
// It is the single place where raw JSON becomes typed data; everything
// unrecognized in a required field is rejected rather than guessed.
package payload

import (
	"encoding/json"
	"fmt"
	"strings"

	"legalbridge.app/bridge/internal/model"
)

// ValidationError names the first missing or malformed required field.
// A normal, expected outcome for bad input, mapped to a 4xx response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: field %q: %s", e.Field, e.Reason)
}

// envelope covers the two shapes the campaign store sends: the automation
// webhook shape ({"data": {"id": ..., "properties": ...}}) and the event
// shape ({"page_id"/"recordId": ..., "properties": ...}).
type envelope struct {
	Data *struct {
		ID         string                     `json:"id"`
		Properties map[string]json.RawMessage `json:"properties"`
	} `json:"data"`
	PageID     string                     `json:"page_id"`
	RecordID   string                     `json:"recordId"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// rawProperty is the superset of property encodings the store emits. Title
// values arrive either as a plain string or as a rich-text fragment list;
// status as {"label": ...} or {"status": {"name": ...}}; URLs as {"url": ...}
// or as a rich-text fragment list.
type rawProperty struct {
	Title  json.RawMessage `json:"title"`
	Label  string          `json:"label"`
	Status *struct {
		Name string `json:"name"`
	} `json:"status"`
	URL      string `json:"url"`
	RichText []struct {
		PlainText string `json:"plain_text"`
	} `json:"rich_text"`
}

// Validate parses and validates a raw webhook body. It never panics on
// malformed input; any failure is a *ValidationError.
func Validate(body []byte) (*model.Notification, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ValidationError{Field: "body", Reason: "not a JSON object"}
	}

	recordID := env.RecordID
	properties := env.Properties
	if env.Data != nil {
		recordID = env.Data.ID
		properties = env.Data.Properties
	} else if env.PageID != "" {
		recordID = env.PageID
	}

	if strings.TrimSpace(recordID) == "" {
		return nil, &ValidationError{Field: "recordId", Reason: "missing record identifier"}
	}
	if len(properties) == 0 {
		return nil, &ValidationError{Field: "properties", Reason: "missing properties"}
	}

	notification := &model.Notification{
		RecordID:   recordID,
		Properties: make(map[string]model.Property, len(properties)),
	}
	for name, raw := range properties {
		notification.Properties[name] = parseProperty(raw)
	}

	if p, ok := notification.Properties[model.PropertyName]; !ok || p.Kind != model.PropertyKindTitle {
		return nil, &ValidationError{Field: model.PropertyName, Reason: "missing or not a title property"}
	}
	if p, ok := notification.Properties[model.PropertyStatus]; !ok || p.Kind != model.PropertyKindStatus {
		return nil, &ValidationError{Field: model.PropertyStatus, Reason: "missing or not a status property"}
	}

	return notification, nil
}

// ParseProperties converts a raw property map into typed properties without
// enforcing the required-field invariants. Used when merging properties
// fetched from the source store into an already-validated notification.
func ParseProperties(raw map[string]json.RawMessage) map[string]model.Property {
	properties := make(map[string]model.Property, len(raw))
	for name, value := range raw {
		properties[name] = parseProperty(value)
	}
	return properties
}

func parseProperty(raw json.RawMessage) model.Property {
	var prop rawProperty
	if err := json.Unmarshal(raw, &prop); err != nil {
		return model.Property{Kind: model.PropertyKindUnsupported}
	}

	if len(prop.Title) > 0 {
		if text, ok := titleText(prop.Title); ok {
			return model.Property{Kind: model.PropertyKindTitle, Title: strings.TrimSpace(text)}
		}
		return model.Property{Kind: model.PropertyKindUnsupported}
	}

	if prop.Status != nil {
		return model.Property{Kind: model.PropertyKindStatus, Label: prop.Status.Name}
	}
	if prop.Label != "" {
		return model.Property{Kind: model.PropertyKindStatus, Label: prop.Label}
	}

	if prop.URL != "" {
		return model.Property{Kind: model.PropertyKindURL, URL: strings.TrimSpace(prop.URL)}
	}
	if len(prop.RichText) > 0 && prop.RichText[0].PlainText != "" {
		return model.Property{Kind: model.PropertyKindURL, URL: strings.TrimSpace(prop.RichText[0].PlainText)}
	}

	return model.Property{Kind: model.PropertyKindUnsupported}
}

// titleText accepts both a bare string and a list of rich-text fragments.
func titleText(raw json.RawMessage) (string, bool) {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, true
	}

	var fragments []struct {
		PlainText string `json:"plain_text"`
	}
	if err := json.Unmarshal(raw, &fragments); err == nil {
		var sb strings.Builder
		for _, f := range fragments {
			sb.WriteString(f.PlainText)
		}
		return sb.String(), true
	}

	return "", false
}
