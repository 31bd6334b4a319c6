package media

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"microblog/internal/dbmongo"
)

// Store uploads blobs to GridFS under a caller-scoped key and hands back the
// public URL the media server resolves. Satisfies the feed and user
// MediaStore interfaces.
type Store struct {
	storage *dbmongo.MediaStorage
	baseURL string
}

func NewStore(mongoClient *dbmongo.MongoClient, baseURL string) *Store {
	return &Store{
		storage: dbmongo.NewMediaStorage(mongoClient),
		baseURL: baseURL,
	}
}

// Upload stores data under <uploaderID>/<uuid>.<ext> and returns its public
// URL.
func (s *Store) Upload(ctx context.Context, uploaderID, fileName, mimeType string, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%s%s", uploaderID, uuid.NewString(), path.Ext(fileName))

	mediaFile, err := s.storage.UploadFile(ctx, key, mimeType, uploaderID, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return s.baseURL + mediaFile.ID, nil
}
