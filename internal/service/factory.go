package service

import (
	"legalbridge.app/bridge/core/config"
	"legalbridge.app/bridge/internal/dedupe"
	"legalbridge.app/bridge/internal/jira"
	"legalbridge.app/bridge/internal/mapper"
	"legalbridge.app/bridge/internal/notion"
	"legalbridge.app/bridge/internal/store"
	"legalbridge.app/bridge/internal/trigger"
)

type Services struct {
	dispatch DispatchService
}

type ServicesConfig struct {
	Guard      dedupe.Guard
	Deliveries store.DeliveryStore
	Webhook    config.WebhookConfig
	Jira       config.JiraConfig
	Notion     config.NotionConfig
}

func NewServices(cfg ServicesConfig) *Services {
	var source notion.Source
	if cfg.Notion.Enabled() {
		source = notion.New(notion.Config{APIKey: cfg.Notion.APIKey})
	}

	dispatch := NewDispatchService(
		trigger.NewEvaluator(cfg.Webhook.TriggerStatus),
		mapper.NewTicketMapper(cfg.Jira.ProjectKey, cfg.Jira.IssueType),
		cfg.Guard,
		jira.New(jira.Config{
			Domain:      cfg.Jira.Domain,
			Email:       cfg.Jira.Email,
			APIToken:    cfg.Jira.APIToken,
			MaxAttempts: cfg.Jira.MaxAttempts,
		}, nil, nil),
		source,
		cfg.Deliveries,
		nil,
	)

	return &Services{dispatch: dispatch}
}

func (s *Services) Dispatch() DispatchService {
	return s.dispatch
}
