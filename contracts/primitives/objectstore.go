package primitives

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// ObjectStorageContract defines the compliance suite for any provider
// exposing the ObjectStorage capability.
func ObjectStorageContract() *tck.Contract {
	c := tck.NewContract("primitives", "object_storage", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[ObjectStorage]()},
	})
	c.Clause("upload_and_download_object",
		"Uploaded binary data downloads byte-identical.", objUploadDownload)
	c.Clause("download_missing_object_is_not_found",
		"Downloading a missing object surfaces ErrObjectNotFound.", objDownloadMissing)
	c.Clause("delete_object_removes_it",
		"A deleted object can no longer be downloaded.", objDelete)
	c.Clause("delete_is_idempotent",
		"Deleting a missing object succeeds.", objDeleteIdempotent)
	c.Clause("upload_overwrites_existing_object",
		"Uploading to an existing key replaces the content.", objOverwrite)
	c.Clause("upload_is_idempotent",
		"Repeating the same upload leaves the same final content.", objUploadIdempotent)
	return c
}

func objProvider(ctx context.Context, tc *tck.TC) (ObjectStorage, error) {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[ObjectStorage](env)
}

func randomBytes(n int) []byte {
	buf := make([]byte, n)
	rand.Read(buf)
	return buf
}

func objUploadDownload(ctx context.Context, tc *tck.TC) error {
	store, err := objProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-object-" + uuid.NewString() + ".bin"
	data := randomBytes(1024)

	if err := store.Upload(ctx, key, data); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	got, err := store.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if !bytes.Equal(got, data) {
		return tck.Violated("download after upload",
			fmt.Sprintf("%d identical bytes", len(data)),
			fmt.Sprintf("%d bytes, content differs", len(got)))
	}
	return nil
}

func objDownloadMissing(ctx context.Context, tc *tck.TC) error {
	store, err := objProvider(ctx, tc)
	if err != nil {
		return err
	}
	_, err = store.Download(ctx, "tck-missing-"+uuid.NewString()+".bin")
	if err == nil {
		return tck.Violated("download of missing object", "ErrObjectNotFound", "no error")
	}
	if !errors.Is(err, model.ErrObjectNotFound) {
		return tck.Violated("download of missing object", "ErrObjectNotFound", err.Error())
	}
	return nil
}

func objDelete(ctx context.Context, tc *tck.TC) error {
	store, err := objProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-deleted-" + uuid.NewString() + ".bin"

	if err := store.Upload(ctx, key, randomBytes(128)); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	_, err = store.Download(ctx, key)
	if !errors.Is(err, model.ErrObjectNotFound) {
		observed := "no error"
		if err != nil {
			observed = err.Error()
		}
		return tck.Violated("download after delete", "ErrObjectNotFound", observed)
	}
	return nil
}

func objDeleteIdempotent(ctx context.Context, tc *tck.TC) error {
	store, err := objProvider(ctx, tc)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, "tck-missing-"+uuid.NewString()+".bin"); err != nil {
		return tck.Violated("delete of missing object", "no error", err.Error())
	}
	return nil
}

func objOverwrite(ctx context.Context, tc *tck.TC) error {
	store, err := objProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-overwrite-" + uuid.NewString() + ".bin"
	initial := randomBytes(256)
	replacement := randomBytes(512)

	if err := store.Upload(ctx, key, initial); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := store.Upload(ctx, key, replacement); err != nil {
		return fmt.Errorf("second upload: %w", err)
	}
	got, err := store.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if !bytes.Equal(got, replacement) {
		return tck.Violated("download after overwrite", "replacement content", "other content")
	}
	return nil
}

func objUploadIdempotent(ctx context.Context, tc *tck.TC) error {
	store, err := objProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-idempotent-" + uuid.NewString() + ".bin"
	data := randomBytes(512)

	for i := 0; i < 3; i++ {
		if err := store.Upload(ctx, key, data); err != nil {
			return fmt.Errorf("upload #%d: %w", i+1, err)
		}
	}
	got, err := store.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if !bytes.Equal(got, data) {
		return tck.Violated("download after repeated upload", "original content", "other content")
	}
	return nil
}
