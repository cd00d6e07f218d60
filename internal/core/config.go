package core

import "time"

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	IsTelegramSelected() bool
	IsMCPSelected() bool
}

type BackendConfig interface {
	GetBackend() string
	GetAPIKey() string
	GetBaseURL() string
	GetRequestsPerSecond() float64
}

type ContextConfig interface {
	GetMaxTokens() int
	GetSearchThreshold() float64
	IsCacheEnabled() bool
	GetCacheTTL() time.Duration
	GetCacheSize() int
	GetSweepInterval() time.Duration
}

type TelegramConfig interface {
	GetTelegramToken() string
	GetTelegramOwnerID() int64
}
