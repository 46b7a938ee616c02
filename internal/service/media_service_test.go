package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
)

func TestAttachImage_RejectsOutsidersWithoutStoring(t *testing.T) {
	f := newFixture(t)
	id := f.taskAt(t, model.StatusFixing)

	for _, who := range []model.Identity{bob, nid, admin} {
		_, err := f.svc.Media.AttachImage(f.ctx, who, id, image("x.jpg"), nil)
		assert.ErrorIs(t, err, apperr.ErrForbidden, who.Subject)
	}
	assert.Empty(t, f.files.stored)

	imgs, err := f.mem.TaskImages().ListByTask(f.ctx, id)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

func TestAttachImage_RequesterAndAssignee(t *testing.T) {
	f := newFixture(t)
	id := f.taskAt(t, model.StatusFixing)
	note := "before repair"

	fromUser, err := f.svc.Media.AttachImage(f.ctx, alice, id, image("before.jpg"), &note)
	require.NoError(t, err)
	assert.Equal(t, model.AddedByUser, fromUser.AddedBy)

	fromTech, err := f.svc.Media.AttachImage(f.ctx, somchai, id, image("after.png"), nil)
	require.NoError(t, err)
	assert.Equal(t, model.AddedByTechnician, fromTech.AddedBy)

	imgs, err := f.svc.Media.ListImages(f.ctx, admin, id)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, "before repair", *imgs[0].Description)

	task, err := f.mem.Tasks().GetByID(f.ctx, id)
	require.NoError(t, err)
	assert.Empty(t, task.Images, "later uploads are not mirrored onto the task")
}

func TestAttachImage_UnsupportedFile(t *testing.T) {
	f := newFixture(t)
	id := f.taskAt(t, model.StatusAccepted)

	_, err := f.svc.Media.AttachImage(f.ctx, alice, id, image("virus.exe"), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	imgs, err := f.svc.Media.ListImages(f.ctx, alice, id)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

func TestListImages_Forbidden(t *testing.T) {
	f := newFixture(t)
	id := f.taskAt(t, model.StatusAccepted)
	_, err := f.svc.Media.ListImages(f.ctx, bob, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
