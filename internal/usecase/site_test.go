package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sitewise/chatrelay/internal/errs"
	"github.com/sitewise/chatrelay/internal/mocks"
	"github.com/sitewise/chatrelay/internal/models"
)

func testSites(t *testing.T) (*Sites, *mocks.MockSiteDirectory) {
	t.Helper()
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockSiteDirectory(ctrl)
	return NewSites(directory, slog.New(slog.NewTextHandler(io.Discard, nil))), directory
}

func TestCreateGeneratesIDAndPersists(t *testing.T) {
	sites, directory := testSites(t)

	directory.EXPECT().
		CreateSite(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, site models.Site) (models.Site, error) {
			require.NotEmpty(t, site.SiteID)
			_, err := uuid.Parse(site.SiteID)
			require.NoError(t, err, "site_id must be a UUID")
			assert.Nil(t, site.ActiveConstraintsJSON)
			return site, nil
		})

	created, err := sites.Create(context.Background(), CreateSiteInput{
		Name:     "Acme",
		Timezone: "UTC",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Name)
	assert.Equal(t, "UTC", created.Timezone)
	assert.Nil(t, created.ActiveConstraintsJSON)
}

func TestCreateTrimsInput(t *testing.T) {
	sites, directory := testSites(t)

	directory.EXPECT().
		CreateSite(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, site models.Site) (models.Site, error) {
			assert.Equal(t, "Acme", site.Name)
			assert.Equal(t, "UTC", site.Timezone)
			return site, nil
		})

	_, err := sites.Create(context.Background(), CreateSiteInput{
		Name:     "  Acme  ",
		Timezone: " UTC ",
	})
	require.NoError(t, err)
}

func TestCreateAggregatesAllValidationIssues(t *testing.T) {
	// No CreateSite expectation: nothing may be persisted.
	sites, _ := testSites(t)

	_, err := sites.Create(context.Background(), CreateSiteInput{Name: "", Timezone: ""})
	require.Error(t, err)

	var vErr *errs.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Issues, 2)

	assert.Equal(t, "name", vErr.Issues[0].Field)
	assert.Equal(t, "required", vErr.Issues[0].Code)
	assert.Equal(t, "timezone", vErr.Issues[1].Field)
	assert.Equal(t, "required", vErr.Issues[1].Code)
}

func TestCreateRejectsWhitespaceOnlyFields(t *testing.T) {
	sites, _ := testSites(t)

	_, err := sites.Create(context.Background(), CreateSiteInput{Name: "   ", Timezone: "UTC"})

	var vErr *errs.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Issues, 1)
	assert.Equal(t, "name", vErr.Issues[0].Field)
}

func TestCreateMapsStoreFailureToInternal(t *testing.T) {
	sites, directory := testSites(t)

	directory.EXPECT().
		CreateSite(gomock.Any(), gomock.Any()).
		Return(models.Site{}, &errs.StoreError{Op: "create", EntityID: "x", Err: errors.New("constraint violated")})

	_, err := sites.Create(context.Background(), CreateSiteInput{Name: "Acme", Timezone: "UTC"})

	assert.ErrorIs(t, err, errs.ErrInternal)
	assert.NotContains(t, err.Error(), "constraint violated", "store internals must not leak")
}

func TestGetPassesThroughNotFound(t *testing.T) {
	sites, directory := testSites(t)

	directory.EXPECT().
		GetSiteByID(gomock.Any(), "unknown-id").
		Return(models.Site{}, errs.ErrSiteNotFound)

	_, err := sites.Get(context.Background(), "unknown-id")
	assert.ErrorIs(t, err, errs.ErrSiteNotFound)
}

func TestGetMapsStoreFailureToInternal(t *testing.T) {
	sites, directory := testSites(t)

	directory.EXPECT().
		GetSiteByID(gomock.Any(), "site-1").
		Return(models.Site{}, &errs.StoreError{Op: "getById", EntityID: "site-1", Err: errors.New("timeout")})

	_, err := sites.Get(context.Background(), "site-1")
	assert.ErrorIs(t, err, errs.ErrInternal)
}
