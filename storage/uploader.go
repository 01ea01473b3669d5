package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tripbites/tournament-ranking/models"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	GetPublicURL(key string) string
}

// SnapshotKey is the object key a trip's latest ranking is published under.
func SnapshotKey(tripID string) string {
	return "rankings/" + tripID + ".json"
}

// SnapshotPublisher writes ranking snapshots as public JSON documents.
type SnapshotPublisher struct {
	uploader FileUploader
}

func NewSnapshotPublisher(uploader FileUploader) *SnapshotPublisher {
	return &SnapshotPublisher{uploader: uploader}
}

// Publish uploads s, overwriting the previous document, and returns its
// public URL.
func (p *SnapshotPublisher) Publish(ctx context.Context, s *models.RankingSnapshot) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot for trip %s: %w", s.TripID, err)
	}
	res, err := p.uploader.Upload(ctx, SnapshotKey(s.TripID), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return res.Location, nil
}
