package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
)

var ErrObjectNotFound = errors.New("gcs object not found")

// ObjectStore is what the domain services need from storage.
type ObjectStore interface {
	CopyObject(ctx context.Context, srcKey, dstKey string) error
	DeleteObject(ctx context.Context, key string) error
}

// CopyObject copies srcKey to dstKey inside the default bucket.
func (c *Client) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(srcKey) == "" || strings.TrimSpace(dstKey) == "" {
		return errors.New("source and destination keys are required")
	}

	endpoint := c.baseURL + c.objectPath(srcKey) + "/copyTo" + c.objectPath(dstKey)
	status, err := c.call(ctx, http.MethodPost, endpoint, http.StatusOK, http.StatusNotFound)
	switch {
	case err != nil:
		return fmt.Errorf("copy %s: %w", srcKey, err)
	case status == http.StatusNotFound:
		return fmt.Errorf("copy %s: %w", srcKey, ErrObjectNotFound)
	}
	return nil
}

// DeleteObject removes key. Deleting a missing object succeeds.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	if err := c.ready(); err != nil {
		return err
	}
	_, err := c.call(ctx, http.MethodDelete, c.baseURL+c.objectPath(key),
		http.StatusOK, http.StatusNoContent, http.StatusNotFound)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PetCoverKey names the copy of a donated photo: <prefix>/<petID>_<file>.
func PetCoverKey(prefix, petID, srcKey string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "pets"
	}
	return prefix + "/" + petID + "_" + path.Base(srcKey)
}
