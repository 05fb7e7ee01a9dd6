package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Provider names accepted by AI_PROVIDER.
const (
	ProviderArk       = "ark"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderEcho      = "echo"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Debug       bool
	Server      ServerConfig
	AI          AIConfig
	Chat        ChatConfig
	Preferences PreferencesConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Debug:       debug,
		Server:      server,
		AI:          ai,
		Chat:        chat,
		Preferences: loadPreferencesConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider  string
	Ark       ArkConfig
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
}

// ArkConfig 描述火山方舟模型配置。
type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// GeminiConfig configures the Google Gemini provider.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

func (c GeminiConfig) Enabled() bool { return c.APIKey != "" }

func (c OpenAIConfig) Enabled() bool { return c.APIKey != "" }

func (c AnthropicConfig) Enabled() bool { return c.APIKey != "" }

// ProviderName resolves which provider to use. An explicit AI_PROVIDER wins;
// otherwise the first provider with credentials is chosen, falling back to echo.
func (c AIConfig) ProviderName() string {
	if c.Provider != "" {
		return c.Provider
	}
	switch {
	case c.Ark.Enabled():
		return ProviderArk
	case c.Gemini.Enabled():
		return ProviderGemini
	case c.OpenAI.Enabled():
		return ProviderOpenAI
	case c.Anthropic.Enabled():
		return ProviderAnthropic
	default:
		return ProviderEcho
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	switch provider {
	case "", ProviderArk, ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderEcho:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	arkCfg, err := loadArkConfig()
	if err != nil {
		return AIConfig{}, err
	}

	anthropicMaxTokens := 1024
	if override, err := parseOptionalIntEnv("ANTHROPIC_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		anthropicMaxTokens = *override
	}

	return AIConfig{
		Provider: provider,
		Ark:      arkCfg,
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash-001"),
			BaseURL: getEnvOrDefault("GEMINI_BASE_URL", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnvOrDefault("OPENAI_BASE_URL", ""),
		},
		Anthropic: AnthropicConfig{
			APIKey:    strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
			Model:     getEnvOrDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			BaseURL:   getEnvOrDefault("ANTHROPIC_BASE_URL", ""),
			MaxTokens: anthropicMaxTokens,
		},
	}, nil
}

func loadArkConfig() (ArkConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return ArkConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return ArkConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return ArkConfig{}, err
	}

	return ArkConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// ChatConfig 描述聊天会话的约束。
type ChatConfig struct {
	MaxInputLength int
}

func loadChatConfig() (ChatConfig, error) {
	maxInput := 500
	if override, err := parseOptionalIntEnv("CHAT_MAX_INPUT_LENGTH"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatConfig{}, fmt.Errorf("invalid CHAT_MAX_INPUT_LENGTH value %d: must be positive", *override)
		}
		maxInput = *override
	}
	return ChatConfig{MaxInputLength: maxInput}, nil
}

// PreferencesConfig 描述界面偏好文件的位置。
type PreferencesConfig struct {
	Path string
}

func loadPreferencesConfig() PreferencesConfig {
	return PreferencesConfig{Path: getEnvOrDefault("PREFERENCES_FILE", DefaultPreferencesPath())}
}

// DefaultPreferencesPath places the preferences file under the user config dir.
func DefaultPreferencesPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "educhat", "preferences.yaml")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
