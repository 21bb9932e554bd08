package push

var (
	NewDiscordWithSession = newDiscordWithSession
	NewSlackWithClient    = newSlackWithClient
)
