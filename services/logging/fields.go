package logging

import "go.uber.org/zap"

const hashPrefixLen = 8

func UserID(id uint) zap.Field {
	return zap.Uint("user_id", id)
}

func FamilyID(id string) zap.Field {
	return zap.String("family_id", id)
}

func TokenID(id uint) zap.Field {
	return zap.Uint("token_id", id)
}

// TokenHash logs only a short prefix of a stored token hash. Raw secrets
// must never reach the logger.
func TokenHash(hash string) zap.Field {
	if len(hash) > hashPrefixLen {
		hash = hash[:hashPrefixLen]
	}
	return zap.String("token_hash_prefix", hash)
}

func IPAddress(ip string) zap.Field {
	return zap.String("ip_address", ip)
}
