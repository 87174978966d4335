package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bucketName = "blobs"

// GridFS keeps blobs in a MongoDB GridFS bucket. The newest revision of a
// path wins; visibility lives in the file metadata.
type GridFS struct {
	db      *mongo.Database
	files   *mongo.Collection
	baseURL string
}

func NewGridFS(db *mongo.Database, baseURL string) (*GridFS, error) {
	if _, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName)); err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFS{db: db, files: db.Collection(bucketName + ".files"), baseURL: baseURL}, nil
}

// bucket returns a bucket bound to the deadline of ctx. The gridfs API takes
// deadlines rather than contexts and keeps them on the bucket, so each call
// gets its own.
func (g *GridFS) bucket(ctx context.Context) (*gridfs.Bucket, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}
	b, err := gridfs.NewBucket(g.db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open gridfs bucket: %w", err)
	}
	dl, _ := ctx.Deadline()
	_ = b.SetReadDeadline(dl)
	_ = b.SetWriteDeadline(dl)
	return b, dl, nil
}

func (g *GridFS) Upload(ctx context.Context, p string, data []byte, contentType string) error {
	clean, err := Clean(p)
	if err != nil {
		return err
	}
	meta := bson.D{
		{Key: "contentType", Value: contentTypeFor(clean, contentType)},
		{Key: "public", Value: false},
	}
	bucket, _, err := g.bucket(ctx)
	if err != nil {
		return fmt.Errorf("upload blob %s: %w", clean, err)
	}
	opts := options.GridFSUpload().SetMetadata(meta)
	if _, err := bucket.UploadFromStream(clean, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", clean, err)
	}
	return nil
}

func (g *GridFS) MakePublic(ctx context.Context, p string) error {
	clean, err := Clean(p)
	if err != nil {
		return err
	}
	res, err := g.files.UpdateMany(ctx, bson.M{"filename": clean}, bson.M{"$set": bson.M{"metadata.public": true}})
	if err != nil {
		return fmt.Errorf("make blob public %s: %w", clean, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GridFS) PublicURL(p string) string {
	clean, err := Clean(p)
	if err != nil {
		return ""
	}
	return publicURL(g.baseURL, clean)
}

func (g *GridFS) Open(ctx context.Context, p string) (Object, error) {
	clean, err := Clean(p)
	if err != nil {
		return Object{}, err
	}
	bucket, dl, err := g.bucket(ctx)
	if err != nil {
		return Object{}, fmt.Errorf("open blob %s: %w", clean, err)
	}
	stream, err := bucket.OpenDownloadStreamByName(clean)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("open blob %s: %w", clean, err)
	}
	defer stream.Close()
	_ = stream.SetReadDeadline(dl)

	data, err := io.ReadAll(stream)
	if err != nil {
		return Object{}, fmt.Errorf("read blob %s: %w", clean, err)
	}

	obj := Object{Path: clean, Data: data, ContentType: contentTypeFor(clean, "")}
	if file := stream.GetFile(); file != nil && len(file.Metadata) > 0 {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok && ct != "" {
			obj.ContentType = ct
		}
		obj.Public, _ = file.Metadata.Lookup("public").BooleanOK()
	}
	return obj, nil
}
