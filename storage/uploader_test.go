package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripbites/tournament-ranking/models"
)

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, key, contentType string, r io.Reader) (*UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key, f.contentType = key, contentType
	f.body, _ = io.ReadAll(r)
	return &UploadResult{Key: key, Location: f.GetPublicURL(key)}, nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestSnapshotPublisher_Publish(t *testing.T) {
	up := &fakeUploader{}
	snap := &models.RankingSnapshot{
		TripID:      "trip-1",
		Rankings:    []models.RankingEntry{{EntryID: "e1", Rank: 1, CompositeScore: 7.4}},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	loc, err := NewSnapshotPublisher(up).Publish(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/rankings/trip-1.json", loc)
	assert.Equal(t, "rankings/trip-1.json", up.key)
	assert.Equal(t, "application/json", up.contentType)

	var got models.RankingSnapshot
	require.NoError(t, json.Unmarshal(up.body, &got))
	assert.Equal(t, *snap, got)
}

func TestSnapshotPublisher_UploadError(t *testing.T) {
	up := &fakeUploader{err: errors.New("boom")}
	_, err := NewSnapshotPublisher(up).Publish(context.Background(), &models.RankingSnapshot{TripID: "t"})
	assert.EqualError(t, err, "boom")
}

func TestPublicURL(t *testing.T) {
	base, err := url.Parse("https://pub.example.com/assets/")
	require.NoError(t, err)

	assert.Equal(t, "https://pub.example.com/assets/rankings/a.json", publicURL(base, "rankings/a.json"))
	assert.Equal(t, "https://pub.example.com/assets/rankings/a.json", publicURL(base, "/rankings/a.json"))
	assert.Equal(t, "", publicURL(base, ""))
	assert.Equal(t, "", publicURL(nil, "x"))
}
