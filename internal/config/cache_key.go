package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AssessmentSessionKey returns the cache key for a user's in-progress assessment
func (r *CacheKeyStruct) AssessmentSessionKey(userID int, sessionID uuid.UUID) string {
	return fmt.Sprintf("user:%d:assessment:%s", userID, sessionID)
}

// CatalogSubstancesKey returns the cache key for the substance list
func (r *CacheKeyStruct) CatalogSubstancesKey() string {
	return "catalog:substances"
}

// CatalogTemplateKey returns the cache key for an instrument's question bank
func (r *CacheKeyStruct) CatalogTemplateKey(instrument string) string {
	return fmt.Sprintf("catalog:template:%s", instrument)
}

// SubmitRateKey returns the counter key for a user's submissions in one window
func (r *CacheKeyStruct) SubmitRateKey(userID int, window int64) string {
	return fmt.Sprintf("user:%d:submit_rate:%d", userID, window)
}

var CacheKey = NewCacheKeyStruct()
