// Package datamanager is the single owner of the persisted credential and
// the installation id. All access is serialized.
package datamanager

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/client/storage"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
)

const (
	credentialName     = "credential"
	installationIDName = "installation_id"
)

type DataManager struct {
	credentials storage.Medium
	settings    storage.Medium
	log         logging.Logger

	mu             sync.Mutex
	credential     *models.Credential
	credentialRead bool
	installationID string
}

// New takes the medium for secrets (normally the encrypted file medium)
// and the one for plain settings.
func New(credentials, settings storage.Medium, log logging.Logger) *DataManager {
	if log == nil {
		log = logging.Nop()
	}
	return &DataManager{
		credentials: credentials,
		settings:    settings,
		log:         log.With("component", "datamanager"),
	}
}

// CurrentCredential returns nil when no credential is stored.
func (d *DataManager) CurrentCredential(ctx context.Context) (*models.Credential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.credentialRead {
		return copyCredential(d.credential), nil
	}

	var c models.Credential
	found, err := storage.Read(ctx, d.credentials, credentialName, &c)
	if err != nil {
		return nil, err
	}

	d.credentialRead = true
	if found {
		d.credential = &c
	}
	return copyCredential(d.credential), nil
}

func (d *DataManager) UpdateCredential(ctx context.Context, c models.Credential) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := storage.Write(ctx, d.credentials, credentialName, c); err != nil {
		return err
	}

	d.credential = &c
	d.credentialRead = true
	d.log.Debug(ctx, "credential updated")
	return nil
}

func (d *DataManager) RemoveCredential(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.credentials.Delete(ctx, credentialName); err != nil {
		return err
	}

	d.credential = nil
	d.credentialRead = true
	d.log.Debug(ctx, "credential removed")
	return nil
}

// InstallationID returns the id of this installation, creating and
// persisting one on first use.
func (d *DataManager) InstallationID(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.installationID != "" {
		return d.installationID, nil
	}

	var id string
	found, err := storage.Read(ctx, d.settings, installationIDName, &id)
	if err != nil {
		return "", err
	}

	if !found || id == "" {
		id = uuid.NewString()
		if err := storage.Write(ctx, d.settings, installationIDName, id); err != nil {
			return "", err
		}
		d.log.Info(ctx, "created installation id", "installation_id", id)
	}

	d.installationID = id
	return id, nil
}

func copyCredential(c *models.Credential) *models.Credential {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
