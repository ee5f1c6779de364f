package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/tender-award/internal/model"
)

func TestCheckSourcing(t *testing.T) {
	f := newFixture()
	svc := NewSourcingService(f.store, f.store)
	ctx := context.Background()

	sourced, err := svc.IsPackageSourced(ctx, f.principal.TenantID, f.pkg.ID)
	require.NoError(t, err)
	assert.False(t, sourced)

	tender := model.SourcingMechanism{Kind: model.SourcingKindTender, ID: uuid.New(), Status: "open"}
	f.store.mechanisms[model.SourcingKindTender] = []model.SourcingMechanism{tender}

	check, err := svc.CheckSourcing(ctx, f.principal.TenantID, f.pkg.ID)
	require.NoError(t, err)
	assert.True(t, check.Sourced)
	assert.Equal(t, []model.SourcingMechanism{tender}, check.Mechanisms)

	commitments, err := svc.CheckCommitments(ctx, f.principal.TenantID, f.pkg.ID)
	require.NoError(t, err)
	assert.False(t, commitments.Sourced)
	assert.Empty(t, commitments.Mechanisms)
}

func TestCheckSourcingReportsEveryMechanism(t *testing.T) {
	f := newFixture()
	kinds := []model.SourcingKind{
		model.SourcingKindTender,
		model.SourcingKindContract,
		model.SourcingKindDirectAward,
		model.SourcingKindInternalAssignment,
	}
	for _, kind := range kinds {
		f.store.mechanisms[kind] = []model.SourcingMechanism{{Kind: kind, ID: uuid.New(), Status: "active"}}
	}

	check, err := NewSourcingService(f.store, f.store).CheckSourcing(context.Background(), f.principal.TenantID, f.pkg.ID)
	require.NoError(t, err)
	require.Len(t, check.Mechanisms, 4)
	for i, kind := range kinds {
		assert.Equal(t, kind, check.Mechanisms[i].Kind)
	}
}

func TestCheckSourcingPropagatesErrors(t *testing.T) {
	f := newFixture()
	f.store.sourceErr = errBoom

	_, err := NewSourcingService(f.store, f.store).CheckSourcing(context.Background(), f.principal.TenantID, f.pkg.ID)
	assert.ErrorIs(t, err, errBoom)
}

func TestCheckSourcingUnknownPackage(t *testing.T) {
	f := newFixture()
	svc := NewSourcingService(f.store, f.store)

	_, err := svc.CheckSourcing(context.Background(), f.principal.TenantID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CodePackageNotFound, CodeOf(err))

	sourced, err := svc.IsPackageSourced(context.Background(), f.principal.TenantID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, sourced)
}
