package leadio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadmart/leadgen-cli/internal/model"
)

func sampleRaw() []model.RawLead {
	return []model.RawLead{
		{
			BusinessName: "BrightStar",
			Niche:        "dentists",
			City:         "Pune",
			Phone:        "+1 555-123-4567",
			Email:        "info@brightstarco.com",
			SourceURL:    "http://source.example/lead_1",
			ScrapedAt:    "2026-08-31 09:00:00",
		},
		{
			BusinessName: "Fresh Mart",
			Niche:        "grocers",
			City:         "Pune",
			Phone:        "99",
			Email:        "bad-email",
			SourceURL:    "http://source.example/lead_2",
			ScrapedAt:    "2026-08-31 09:00:01",
		},
	}
}

func TestWriteReadRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")

	require.NoError(t, WriteRaw(path, sampleRaw()))

	got, err := ReadRaw(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRaw(), got)
}

func TestReadRawMissingFile(t *testing.T) {
	_, err := ReadRaw(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, IsMissing(err))
}

func TestReadRawToleratesMissingEnrichmentColumns(t *testing.T) {
	// An old-format raw file without Lead Score / Reason to Contact /
	// Attribute must still parse; the absent fields stay zero.
	path := filepath.Join(t.TempDir(), "raw.csv")
	csv := "Business Name,Niche,City,Phone,Email,Source URL,Scraped At\n" +
		"BrightStar,dentists,Pune,555-123-4567,info@brightstarco.com,http://s/1,2026-08-31 09:00:00\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	got, err := ReadRaw(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BrightStar", got[0].BusinessName)
	assert.Equal(t, 0, got[0].LeadScore)
	assert.Empty(t, got[0].ReasonToContact)
	assert.Empty(t, got[0].Attribute)
}

func TestReadRawEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	got, err := ReadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteVerifiedEmptyKeepsFullHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verified.csv")

	require.NoError(t, WriteVerified(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t,
		"Business Name,Phone,Email,City,Niche,Lead Score,Reason to Contact,Attribute,Source URL,Scraped At,Schema Version",
		lines[0],
	)
}

func TestWriteVerifiedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verified.csv")
	leads := []model.VerifiedLead{
		{
			BusinessName:    "BrightStar",
			Phone:           "+1 555-123-4567",
			Email:           "info@brightstarco.com",
			City:            "Pune",
			Niche:           "dentists",
			LeadScore:       72,
			ReasonToContact: "new_in_market",
			SourceURL:       "http://s/1",
			ScrapedAt:       "2026-08-31 09:00:00",
			SchemaVersion:   model.SchemaVersion,
		},
	}

	require.NoError(t, WriteVerified(path, leads))

	got, err := ReadVerified(path)
	require.NoError(t, err)
	assert.Equal(t, leads, got)
}

func TestWriteVerifiedOverwritesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verified.csv")
	require.NoError(t, WriteVerified(path, []model.VerifiedLead{{BusinessName: "Old", SchemaVersion: model.SchemaVersion}}))
	require.NoError(t, WriteVerified(path, nil))

	got, err := ReadVerified(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteVerifiedLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verified.csv")
	require.NoError(t, WriteVerified(path, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "verified.csv", entries[0].Name())
}
