package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/httprange"
)

// GridFSStore stores audio blobs as chunked GridFS files, addressed by the
// hex form of the file's ObjectID.
type GridFSStore struct {
	bucket *gridfs.Bucket
	logger *zap.Logger
}

// NewGridFSStore opens (or creates) the named bucket on the given database.
func NewGridFSStore(db *mongo.Database, bucketName string, logger *zap.Logger) (*GridFSStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open gridfs bucket")
	}
	return &GridFSStore{bucket: bucket, logger: logger}, nil
}

type gridfsFileDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	Length     int64              `bson:"length"`
	Filename   string             `bson:"filename"`
	UploadDate time.Time          `bson:"uploadDate"`
	Metadata   struct {
		ContentType string `bson:"contentType"`
	} `bson:"metadata"`
}

// Put uploads a complete buffer as one GridFS file.
func (s *GridFSStore) Put(ctx context.Context, data []byte, filename string, metadata map[string]string) (string, int64, error) {
	s.applyDeadlines(ctx)

	meta := bson.M{}
	for k, v := range metadata {
		meta[k] = v
	}

	fileID, err := s.bucket.UploadFromStream(filename, bytes.NewReader(data), options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return "", 0, appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, appErrors.ErrStorageWrite.Message)
	}

	return fileID.Hex(), int64(len(data)), nil
}

// Info looks up the file document for the given blob id.
func (s *GridFSStore) Info(ctx context.Context, id string) (*BlobInfo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, appErrors.ErrContentMissing
	}

	s.applyDeadlines(ctx)
	cursor, err := s.bucket.Find(bson.M{"_id": oid})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageRead.Code, appErrors.ErrStorageRead.Status, appErrors.ErrStorageRead.Message)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	if !cursor.Next(ctx) {
		return nil, appErrors.ErrContentMissing
	}

	var doc gridfsFileDoc
	if err := cursor.Decode(&doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageRead.Code, appErrors.ErrStorageRead.Status, appErrors.ErrStorageRead.Message)
	}

	return &BlobInfo{
		ID:          doc.ID.Hex(),
		Length:      doc.Length,
		ContentType: doc.Metadata.ContentType,
		Filename:    doc.Filename,
		UploadedAt:  doc.UploadDate,
	}, nil
}

// OpenRead opens a download stream, skipping to the range start when a range
// is requested. The returned reader delivers exactly the requested span;
// closing it releases the driver cursor, which covers the client-disconnect
// case.
func (s *GridFSStore) OpenRead(ctx context.Context, id string, rng *httprange.ByteRange) (io.ReadCloser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, appErrors.ErrContentMissing
	}

	s.applyDeadlines(ctx)
	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, appErrors.ErrContentMissing
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageRead.Code, appErrors.ErrStorageRead.Status, appErrors.ErrStorageRead.Message)
	}

	if rng == nil {
		return stream, nil
	}

	if _, err := stream.Skip(rng.Start); err != nil {
		_ = stream.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrStorageRead.Code, appErrors.ErrStorageRead.Status, appErrors.ErrStorageRead.Message)
	}

	return &rangeReader{
		Reader: io.LimitReader(stream, rng.Length()),
		closer: stream,
	}, nil
}

// Delete removes the file and its chunks. A blob that is already gone, or an
// id that was never a valid ObjectID, counts as deleted.
func (s *GridFSStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	s.applyDeadlines(ctx)
	if err := s.bucket.Delete(oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			s.logger.Debug("gridfs blob already absent", zap.String("blob_id", id))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, "failed to delete audio file")
	}
	return nil
}

// applyDeadlines maps a context deadline onto the bucket, which predates
// context support in the driver's GridFS API.
func (s *GridFSStore) applyDeadlines(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetReadDeadline(deadline)
		_ = s.bucket.SetWriteDeadline(deadline)
	}
}
