package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Config struct {
	Log           Log           `yaml:"log"`
	KnowledgeBase KnowledgeBase `yaml:"knowledge_base" validate:"required"`
	Resolver      Resolver      `yaml:"resolver"`
	Session       Session       `yaml:"session"`
}

type Log struct {
	// Minimum console level
	Level string `yaml:"level" example:"info" validate:"oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890" validate:"required_with=Token"`
}

type KnowledgeBase struct {
	// Path to the YAML knowledge base
	Path string `yaml:"path" example:"kb.yaml" validate:"required"`
}

type Resolver struct {
	// Upper bound on chain passes per decision
	MaxIterations int `yaml:"max_iterations" example:"64" validate:"gte=1"`
	// Selecting one root purpose clears the others
	RootPurposeOptional bool `yaml:"root_purpose_optional" example:"false"`
	// Collapse single-option root choices without a decision
	AutoCompleteRoots bool `yaml:"auto_complete_roots" example:"false"`
	// Record per-stage notes for every request
	Diagnostics bool `yaml:"diagnostics" example:"true"`
}

type Session struct {
	// Storage backend
	Backend string `yaml:"backend" example:"file" validate:"oneof=memory file badger"`
	// Directory for the file and badger backends
	Dir string `yaml:"dir" example:"data/sessions" validate:"required_unless=Backend memory"`
	// Session used for console lines without an explicit one
	DefaultID string `yaml:"default_id" example:"default" validate:"required"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var result Config

	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Log.Level == "" {
		result.Log.Level = "info"
	}
	if result.Resolver.MaxIterations == 0 {
		result.Resolver.MaxIterations = 64
	}
	if result.Session.Backend == "" {
		result.Session.Backend = "memory"
	}
	if result.Session.Dir == "" && result.Session.Backend != "memory" {
		result.Session.Dir = "data/sessions"
	}
	if result.Session.DefaultID == "" {
		result.Session.DefaultID = "default"
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
