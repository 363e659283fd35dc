package config

// Config is the top-level configuration
type Config struct {
	Providers    ProvidersConfig    `json:"providers"`
	Extraction   ExtractionConfig   `json:"extraction"`
	Conversation ConversationConfig `json:"conversation"`
	Schedule     ScheduleConfig     `json:"schedule"`
	Store        StoreConfig        `json:"store"`
	Channels     ChannelsConfig     `json:"channels"`
}

// ProvidersConfig holds API keys and settings for LLM providers
type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai"`
	Anthropic ProviderConfig `json:"anthropic"`
	Custom    ProviderConfig `json:"custom"`
}

type ProviderConfig struct {
	APIKey       string `json:"apiKey"`
	BaseURL      string `json:"baseUrl"`
	DefaultModel string `json:"defaultModel"`
}

// ExtractionConfig tunes the generative extractor.
type ExtractionConfig struct {
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// ConversationConfig tunes the dialogue loop.
type ConversationConfig struct {
	// WindowMinutes is the inactivity window after which an unfinished
	// conversation expires.
	WindowMinutes int `json:"windowMinutes"`
	// SweepSeconds is how often expired sessions are swept out.
	SweepSeconds int `json:"sweepSeconds"`
	// HistoryLimit bounds the raw turns kept as extraction context.
	HistoryLimit int `json:"historyLimit"`
}

// ScheduleConfig tunes schedule generation.
type ScheduleConfig struct {
	// CollisionWindowMinutes is how close two reminders on the same weekday
	// may sit before they are treated as colliding.
	CollisionWindowMinutes int `json:"collisionWindowMinutes"`
}

// StoreConfig locates the persistence boundary.
type StoreConfig struct {
	DataDir string `json:"dataDir"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
	Slack    SlackConfig    `json:"slack"`
}

type TelegramConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

type DiscordConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

type SlackConfig struct {
	BotToken     string   `json:"botToken"`
	AppToken     string   `json:"appToken"`
	AllowedUsers []string `json:"allowedUsers"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 5,
		},
		Conversation: ConversationConfig{
			WindowMinutes: 30,
			SweepSeconds:  60,
			HistoryLimit:  8,
		},
		Schedule: ScheduleConfig{
			CollisionWindowMinutes: 15,
		},
		Store: StoreConfig{
			DataDir: "~/.lockinbot",
		},
	}
}
