package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MuhamedUsman/letstore/internal/domain"
)

const foldersPath = "/folders/"

type createFolderRequest struct {
	Name           string `json:"name"`
	ParentFolderID string `json:"parent_folder_id,omitempty"`
}

type shareRequest struct {
	UserID string `json:"user_id"`
}

// ListFolders lists the folders directly under parentID, domain.RootID for the top level.
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]domain.Folder, error) {
	q := url.Values{}
	if parentID != domain.RootID {
		q.Set("parent_folder_id", parentID)
	}
	var folders []domain.Folder
	if err := c.doJSON(ctx, http.MethodGet, foldersPath, q, nil, &folders); err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (domain.Folder, error) {
	var f domain.Folder
	in := createFolderRequest{Name: name, ParentFolderID: parentID}
	if err := c.doJSON(ctx, http.MethodPost, foldersPath, nil, in, &f); err != nil {
		return f, fmt.Errorf("creating folder %q: %w", name, err)
	}
	return f, nil
}

// DeleteFolder removes the folder along with everything inside it.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, foldersPath+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	return nil
}

func (c *Client) ShareFolder(ctx context.Context, id, userID string) (domain.Folder, error) {
	var f domain.Folder
	p := foldersPath + url.PathEscape(id) + "/share"
	if err := c.doJSON(ctx, http.MethodPost, p, nil, shareRequest{UserID: userID}, &f); err != nil {
		return f, fmt.Errorf("sharing folder: %w", err)
	}
	return f, nil
}
