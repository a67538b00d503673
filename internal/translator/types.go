package translator

import (
	"context"
	"time"
)

// ServiceConfig carries per-job service settings. Model overrides the
// service's default model when set.
type ServiceConfig struct {
	Credentials string `mapstructure:"credentials" json:"credentials"`
	APIKey      string `mapstructure:"api_key" json:"api_key"`
	Model       string `mapstructure:"model" json:"model"`
	BaseURL     string `mapstructure:"base_url" json:"base_url"`
}

// TranslateRequest is one segment of a document. SourceLang and TargetLang are
// language names as shown to an LLM (e.g. "English"); services that need ISO
// codes convert them.
type TranslateRequest struct {
	Text         string  `json:"text"`
	SourceLang   string  `json:"source_lang"`
	TargetLang   string  `json:"target_lang"`
	Instructions string  `json:"instructions,omitempty"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

type TranslationService interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
}
