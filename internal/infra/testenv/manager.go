package testenv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

const projectName = "MCP - Test Project"

// Manager drives the project lifecycle: absent, provisioning, ready,
// tearing down, absent again. The local store guarantees at most one live
// project at a time.
type Manager struct {
	store  *Store
	client *upstream.Client
	mgmt   upstream.ManagementContext
	logger *zap.Logger
}

func NewManager(store *Store, client *upstream.Client, mgmt upstream.ManagementContext, logger *zap.Logger) (*Manager, error) {
	if mgmt.ID == "" || mgmt.Token == "" {
		return nil, errors.New("management credentials are required")
	}
	if mgmt.BaseURL == "" {
		return nil, errors.New("management base url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		client: client,
		mgmt:   mgmt,
		logger: logger.Named("testenv"),
	}, nil
}

// Status reports the persisted record, if any.
func (m *Manager) Status() (Record, bool, error) {
	return m.store.Load()
}

// Provision tears down any recorded project, creates a fresh one, and
// populates the fixture set. The record is persisted only after the full
// fixture build succeeds; a partial failure deletes the fresh project so no
// orphan survives.
func (m *Manager) Provision(ctx context.Context) (Record, error) {
	if err := m.teardownRecorded(ctx); err != nil {
		return Record{}, err
	}

	m.logger.Info("creating test project", zap.String("name", projectName))
	project, err := m.client.CreateProject(ctx, m.mgmt, projectName, "Europe/Warsaw", "USD")
	if err != nil {
		return Record{}, fmt.Errorf("create project: %w", err)
	}

	caller := domain.CallerContext{
		AppID:    project.AppID,
		AppToken: project.AppToken,
		BaseURL:  m.mgmt.BaseURL,
	}

	resources, err := buildFixtures(ctx, m.client, caller)
	if err != nil {
		m.logger.Error("fixture build failed, deleting fresh project",
			zap.String("project_id", project.ID),
			zap.Error(err))
		if delErr := m.client.DeleteProject(context.WithoutCancel(ctx), m.mgmt, project.ID); delErr != nil {
			m.logger.Error("orphaned test project could not be deleted",
				zap.String("project_id", project.ID),
				zap.Error(delErr))
		}
		return Record{}, fmt.Errorf("build fixtures: %w", err)
	}

	record := Record{
		ProjectID: project.ID,
		AppID:     project.AppID,
		AppToken:  project.AppToken,
		BaseURL:   m.mgmt.BaseURL,
		Resources: resources,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Save(record); err != nil {
		return Record{}, fmt.Errorf("persist record: %w", err)
	}
	m.logger.Info("test project ready",
		zap.String("project_id", record.ProjectID),
		zap.Int("resources", len(record.Resources)))
	return record, nil
}

// Teardown deletes the recorded project and clears the record. Without a
// record it is a no-op.
func (m *Manager) Teardown(ctx context.Context) error {
	return m.teardownRecorded(ctx)
}

// teardownRecorded is idempotent: a project already deleted upstream still
// clears the local record.
func (m *Manager) teardownRecorded(ctx context.Context) error {
	record, found, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	if !found {
		return nil
	}

	m.logger.Info("deleting recorded test project", zap.String("project_id", record.ProjectID))
	if err := m.client.DeleteProject(ctx, m.mgmt, record.ProjectID); err != nil {
		if domain.CodeOf(err) != domain.CodeNotFound {
			return fmt.Errorf("delete project %s: %w", record.ProjectID, err)
		}
		m.logger.Warn("recorded project already gone upstream", zap.String("project_id", record.ProjectID))
	}
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear record: %w", err)
	}
	return nil
}
