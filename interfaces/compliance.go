package interfaces

import (
	"nfl-pool/database"
	"nfl-pool/services"
)

// Interface compliance checks - these will fail to compile if implementations drift
var (
	// Repositories
	_ services.PickStore    = (*database.MongoPickRepository)(nil)
	_ services.PickWriter   = (*database.MongoPickWriter)(nil)
	_ RecapRepository       = (*database.MongoRecapRepository)(nil)
	_ ParticipantRepository = (*database.MongoParticipantRepository)(nil)
	_ SettingsRepository    = (*database.MongoSettingsRepository)(nil)
	_ DatabaseHealth        = (*database.MongoDB)(nil)

	// Gateway
	_ services.GameResultsGateway = (*services.ESPNService)(nil)
	_ services.GameResultsGateway = (*services.RetryingGateway)(nil)
	_ GatewayHealth               = (*services.ESPNService)(nil)

	// Services
	_ RecapTrigger        = (*services.BatchDriver)(nil)
	_ LeaderboardProvider = (*services.LeaderboardService)(nil)
	_ FavoritesWriter     = (*services.FavoritesGenerator)(nil)
)
