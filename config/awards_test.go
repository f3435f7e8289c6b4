package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAwardCatalog(t *testing.T) {
	data := []byte(`
entities:
  - entity_code: BHS
    awards:
      - name: International Quartet Championship
        kind: quartet
        level: championship
        is_primary: true
      - name: Seniors Qualifier
        kind: quartet
        level: qualifier
        threshold: 76.0
        is_single: true
`)
	catalog, err := ParseAwardCatalog(data)
	require.NoError(t, err)
	require.Len(t, catalog.Entities, 1)
	awards := catalog.Entities[0].Awards
	require.Len(t, awards, 2)
	assert.True(t, awards[0].IsPrimary)
	assert.Equal(t, 76.0, *awards[1].Threshold)
}

func TestParseAwardCatalogValidation(t *testing.T) {
	tests := map[string]string{
		"qualifier without threshold": `
entities:
  - entity_code: BHS
    awards:
      - name: Qualifier
        kind: quartet
        level: qualifier
`,
		"unknown level": `
entities:
  - entity_code: BHS
    awards:
      - name: Mystery
        kind: chorus
        level: lottery
`,
		"no awards": `
entities:
  - entity_code: BHS
`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAwardCatalog([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{
		DatabaseHost:      "localhost",
		DatabasePort:      "5432",
		PostgresUser:      "postgres",
		DatabaseName:      "postgres",
		JWTSecret:         "secret",
		KafkaBroker:       "localhost:9092",
		ReportTopic:       "reports",
		NotificationTopic: "notifications",
		JobTopic:          "jobs",
		JobConsumerGroup:  "workers",
		VarianceTolerance: 5,
		ServerAddress:     ":8000",
	}
	assert.NoError(t, cfg.Validate())

	cfg.DiscordBotToken = "token"
	assert.Error(t, cfg.Validate(), "discord channel is required with a bot token")

	cfg.DiscordChannelID = "123"
	cfg.VarianceTolerance = 0
	assert.Error(t, cfg.Validate())
}
