package installer

const (
	keyBackend       = "TUSK_MEMORY_BACKEND"
	keyAPIKey        = "TUSK_MEMORY_API_KEY"
	keyChannel       = "TUSK_CHAT_CHANNEL"
	keyTelegramToken = "TUSK_TELEGRAM_TOKEN"
	keyTelegramOwner = "TUSK_TELEGRAM_OWNER_ID"
	keyEnableTG      = "TUSK_ENABLE_TELEGRAM"
	keyEnableMCP     = "TUSK_ENABLE_MCP"
	keyDebug         = "TUSK_DEBUG"
)

const (
	channelMCP      = "MCP (stdio)"
	channelTelegram = "Telegram"
	channelBoth     = "MCP + Telegram"
)

type InstallState struct {
	EnvVars map[string]string
}

func NewInstallState() *InstallState {
	return &InstallState{
		EnvVars: make(map[string]string),
	}
}

func (s *InstallState) usesTelegram() bool {
	ch := s.EnvVars[keyChannel]
	return ch == channelTelegram || ch == channelBoth
}

func (s *InstallState) usesHostedBackend() bool {
	return s.EnvVars[keyBackend] == "supermemory"
}
